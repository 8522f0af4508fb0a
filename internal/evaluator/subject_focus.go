package evaluator

import (
	"context"
	"time"

	"github.com/francovalli123/StudyO/internal/model"
)

// subjectFocusEvaluator 学科专注：取单一学科的最大会话数
// 未关联学科的会话不参与统计
type subjectFocusEvaluator struct {
	deps
}

func (e *subjectFocusEvaluator) Evaluate(ctx context.Context, _ time.Time) (Result, error) {
	sessions, err := e.sessions(ctx)
	if err != nil {
		return Result{}, err
	}

	perSubject := make(map[string]int)
	for i := range sessions {
		if sessions[i].SubjectID != nil {
			perSubject[*sessions[i].SubjectID]++
		}
	}

	var best int
	for _, n := range perSubject {
		if n > best {
			best = n
		}
	}

	target := metadata[model.ChallengeSubjectFocus].target
	current := float64(best)
	return Result{CurrentValue: current, TargetValue: target, Completed: current >= target}, nil
}
