package evaluator

import (
	"context"
	"time"

	"github.com/francovalli123/StudyO/internal/model"
)

// 碎片会话阈值：短于 25 分钟
const cleanFocusMinDuration = 25.0

// cleanFocusEvaluator 纯净专注：统计本周没有碎片会话的天数
//
// 遍历周一到周日全部 7 天，没有任何会话的天也算合格。
// 未来的天尚无会话、同样合格，所以周初的进度值偏高；
// 之后出现的碎片会话会在重算时把对应天打回不合格。
type cleanFocusEvaluator struct {
	deps
}

func (e *cleanFocusEvaluator) Evaluate(ctx context.Context, _ time.Time) (Result, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return Result{}, err
	}

	dirty := make(map[time.Time]bool)
	for i := range sessions {
		if sessions[i].DurationMinutes < cleanFocusMinDuration {
			dirty[e.localDate(&sessions[i])] = true
		}
	}

	var clean int
	for d := e.week.StartDate; !d.After(e.week.EndDate); d = d.AddDate(0, 0, 1) {
		if !dirty[d] {
			clean++
		}
	}

	target := metadata[model.ChallengeCleanFocus].target
	current := float64(clean)
	return Result{CurrentValue: current, TargetValue: target, Completed: current >= target}, nil
}
