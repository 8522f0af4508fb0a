package evaluator

import (
	"context"
	"time"

	"github.com/francovalli123/StudyO/internal/model"
)

// 深度工作的判定阈值
const (
	deepWorkMinDuration = 50.0 // 分钟
	deepWorkMinPerDay   = 2
)

// deepWorkEvaluator 深度工作：统计"当天有 ≥2 个 ≥50 分钟会话"的本地天数
type deepWorkEvaluator struct {
	deps
}

func (e *deepWorkEvaluator) Evaluate(ctx context.Context, _ time.Time) (Result, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return Result{}, err
	}

	longPerDay := make(map[time.Time]int)
	for i := range sessions {
		if sessions[i].DurationMinutes >= deepWorkMinDuration {
			longPerDay[e.localDate(&sessions[i])]++
		}
	}

	var days int
	for _, n := range longPerDay {
		if n >= deepWorkMinPerDay {
			days++
		}
	}

	target := metadata[model.ChallengeFocusDeepWork].target
	current := float64(days)
	return Result{CurrentValue: current, TargetValue: target, Completed: current >= target}, nil
}
