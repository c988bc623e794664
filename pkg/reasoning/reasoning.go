// Package reasoning scores the stepwise quality of collected clinical
// conversations.
package reasoning

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"healthaudit/pkg/core"
)

// Analyzer asks the judge to rate each assistant turn of every conversation
// and rolls the ratings up as a mean of per-conversation means, so long
// conversations do not dominate short ones.
type Analyzer struct {
	Judge  core.Judge
	Logger *zap.Logger
}

// Analyze scores every conversation. One with no assistant turns aggregates
// to zero without consulting the judge. A judge failure on one conversation
// skips that conversation only.
func (a *Analyzer) Analyze(ctx context.Context, responses []core.ModelResponse) (*core.MultiStepResult, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var perConversation []core.ConversationScore
	for _, resp := range responses {
		if assistantTurns(resp.Turns) == 0 {
			perConversation = append(perConversation, core.ConversationScore{
				QuestionID: resp.QuestionID,
			})
			continue
		}
		steps, err := a.Judge.ScoreSteps(ctx, resp.Turns)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("reasoning: %w", ctx.Err())
			}
			logger.Warn("step scoring failed, skipping conversation",
				zap.String("question_id", resp.QuestionID),
				zap.Error(err))
			continue
		}
		aggregate := 0.0
		if len(steps) > 0 {
			aggregate = round1(mean(steps))
		}
		perConversation = append(perConversation, core.ConversationScore{
			QuestionID:     resp.QuestionID,
			StepScores:     steps,
			AggregateScore: aggregate,
		})
	}

	if len(perConversation) == 0 {
		return nil, nil
	}

	aggregates := make([]float64, len(perConversation))
	for i, c := range perConversation {
		aggregates[i] = c.AggregateScore
	}
	overall := round1(mean(aggregates))

	return &core.MultiStepResult{
		PerConversation: perConversation,
		OverallScore:    overall,
		Summary: fmt.Sprintf("Scored %d conversation(s); mean reasoning quality %.1f/100.",
			len(perConversation), overall),
	}, nil
}

func assistantTurns(turns []core.ConversationTurn) int {
	n := 0
	for _, t := range turns {
		if t.Role == core.RoleAssistant {
			n++
		}
	}
	return n
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
