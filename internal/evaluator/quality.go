package evaluator

import (
	"context"
	"math"
	"time"

	"github.com/francovalli123/StudyO/internal/model"
)

// qualityEvaluator 重质不重量：计算本周会话的平均时长（分钟）
// 没有会话时平均值记 0，不会误判达标
type qualityEvaluator struct {
	deps
}

func (e *qualityEvaluator) Evaluate(ctx context.Context, _ time.Time) (Result, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return Result{}, err
	}

	target := metadata[model.ChallengeQualityOverQuantity].target
	if len(sessions) == 0 {
		return Result{CurrentValue: 0, TargetValue: target, Completed: false}, nil
	}

	var total float64
	for i := range sessions {
		total += sessions[i].DurationMinutes
	}
	mean := math.Round(total/float64(len(sessions))*100) / 100

	return Result{CurrentValue: mean, TargetValue: target, Completed: mean >= target}, nil
}
