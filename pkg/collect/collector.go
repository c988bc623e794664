// Package collect drives probing conversations against the audit target
// with bounded concurrency.
package collect

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"healthaudit/pkg/core"
	"healthaudit/pkg/retry"
)

// MaxTurns bounds every probing conversation.
const MaxTurns = 3

// Config tunes one collection run.
type Config struct {
	MaxTurns         int
	Workers          int
	ElicitConfidence bool
	Retry            retry.Policy
}

// QuestionFailure records a question that produced no usable conversation.
type QuestionFailure struct {
	QuestionID string `json:"questionId"`
	Error      string `json:"error"`
}

// Result is the outcome of one collection run. Failed questions are
// isolated; the batch completes regardless.
type Result struct {
	Responses []core.ModelResponse `json:"responses"`
	Failures  []QuestionFailure    `json:"failures"`
}

// Collector fans questions out to a worker pool. Each conversation opens
// with the raw question, then continues with judge-generated follow-ups up
// to MaxTurns exchanges.
type Collector struct {
	Target   core.Target
	Judge    core.Judge
	Limiter  RateLimiter
	Logger   *zap.Logger
	Config   Config
	Progress func(completed, total int)
}

// Run collects responses for every enabled question. A first-turn failure
// fails that question only; a failure on a later turn truncates the
// conversation and keeps what was collected.
func (c *Collector) Run(ctx context.Context, questions []core.TestQuestion) (Result, error) {
	if c.Target == nil || c.Judge == nil {
		return Result{}, fmt.Errorf("collect: target and judge are required")
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := c.Config.Workers
	if workers <= 0 {
		workers = 1
	}

	enabled := make([]core.TestQuestion, 0, len(questions))
	for _, q := range questions {
		if q.Enabled {
			enabled = append(enabled, q)
		}
	}

	type outcome struct {
		index    int
		response core.ModelResponse
		err      error
	}

	questionCh := make(chan int)
	outcomeCh := make(chan outcome, workers)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for i := range questionCh {
			resp, err := c.collectOne(ctx, logger, enabled[i])
			select {
			case outcomeCh <- outcome{index: i, response: resp, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}

	go func() {
		defer close(questionCh)
		for i := range enabled {
			select {
			case questionCh <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomeCh)
	}()

	responses := make([]*core.ModelResponse, len(enabled))
	var failures []QuestionFailure
	completed := 0
	for out := range outcomeCh {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		completed++
		if c.Progress != nil {
			c.Progress(completed, len(enabled))
		}
		if out.err != nil {
			q := enabled[out.index]
			logger.Warn("question failed",
				zap.String("question_id", q.ID),
				zap.Error(out.err))
			failures = append(failures, QuestionFailure{QuestionID: q.ID, Error: out.err.Error()})
			continue
		}
		resp := out.response
		responses[out.index] = &resp
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	result := Result{Failures: failures}
	for _, resp := range responses {
		if resp != nil {
			result.Responses = append(result.Responses, *resp)
		}
	}
	return result, nil
}

func (c *Collector) collectOne(ctx context.Context, logger *zap.Logger, q core.TestQuestion) (core.ModelResponse, error) {
	maxTurns := c.Config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = MaxTurns
	}

	resp := core.ModelResponse{
		QuestionID:  q.ID,
		Question:    q.Text,
		FailureMode: q.FailureMode,
	}

	message := q.Text
	elicit := c.Config.ElicitConfidence && q.GroundTruth != ""
	if elicit {
		message += confidenceSuffix
	}

	for turn := 0; turn < maxTurns; turn++ {
		reply, err := c.respond(ctx, resp.Turns, message)
		if err != nil {
			if turn == 0 {
				return core.ModelResponse{}, fmt.Errorf("collect: question %s: %w", q.ID, err)
			}
			// Later turns degrade gracefully; the partial conversation
			// is still scoreable.
			logger.Warn("conversation truncated",
				zap.String("question_id", q.ID),
				zap.Int("turn", turn+1),
				zap.Error(err))
			return resp, nil
		}

		if turn == 0 && elicit {
			cleaned, confidence := parseConfidence(reply)
			reply = cleaned
			resp.ConfidenceScore = confidence
		}

		resp.Turns = append(resp.Turns,
			core.ConversationTurn{Role: core.RoleUser, Content: message},
			core.ConversationTurn{Role: core.RoleAssistant, Content: reply},
		)

		if turn == maxTurns-1 {
			break
		}

		followUp, err := c.Judge.FollowUp(ctx, message, reply, q.FailureMode)
		if err != nil {
			logger.Warn("follow-up generation failed, ending conversation early",
				zap.String("question_id", q.ID),
				zap.Error(err))
			break
		}
		message = followUp
	}

	return resp, nil
}

// respond wraps one target call with rate limiting and rate-limit-aware
// retry with jittered backoff.
func (c *Collector) respond(ctx context.Context, history []core.ConversationTurn, message string) (string, error) {
	policy := c.Config.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy(core.IsRateLimit)
	}
	if policy.Retryable == nil {
		policy.Retryable = core.IsRateLimit
	}

	var reply string
	err := policy.Do(ctx, func(ctx context.Context) error {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		reply, err = c.Target.Respond(ctx, history, message)
		return err
	})
	return reply, err
}
