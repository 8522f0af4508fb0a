package evaluator

import (
	"context"
	"time"

	"github.com/francovalli123/StudyO/internal/model"
)

// marathonEvaluator 效率马拉松：统计本周会话总数
type marathonEvaluator struct {
	deps
}

func (e *marathonEvaluator) Evaluate(ctx context.Context, _ time.Time) (Result, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return Result{}, err
	}
	current := float64(len(sessions))
	target := metadata[model.ChallengeMarathonProductivity].target
	return Result{CurrentValue: current, TargetValue: target, Completed: current >= target}, nil
}
