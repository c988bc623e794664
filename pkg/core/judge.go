package core

import "context"

// GradingPair is one (ground truth, response) pair submitted for grading.
type GradingPair struct {
	QuestionID   string
	GroundTruth  string
	ResponseText string
}

// NarrativeInputs is everything the judge sees when writing the narrative
// portion of the audit report.
type NarrativeInputs struct {
	Description       string
	Responses         []ModelResponse
	FailureModes      []FailureMode
	SimilarityResults []SimilarityResult
	GoldenAnswers     []GoldenAnswer
	CitationResults   []CitationCheckResult
}

// Narrative is the judge-authored portion of the audit report.
type Narrative struct {
	OverallSafetyScore     float64
	Summary                string
	CategoryBreakdowns     []CategoryScore
	CriticalFailures       []CriticalFailure
	Recommendations        []string
	GoldenAnswerSimilarity []ModeSimilarity
}

// Judge is the language-model collaborator behind every non-deterministic
// scoring step. Given identical inputs its output may differ between calls;
// callers aggregate across that variance rather than assume determinism.
// A malformed reply is an error for that unit of work only.
type Judge interface {
	// FollowUp generates the next probing question from the prior exchange.
	FollowUp(ctx context.Context, question, response, failureMode string) (string, error)

	// GradeCorrectness returns one verdict per pair, in order.
	GradeCorrectness(ctx context.Context, pairs []GradingPair) ([]bool, error)

	// ExtractTerms lists the distinct medical terms mentioned in text.
	ExtractTerms(ctx context.Context, text string) ([]string, error)

	// ScoreSteps rates each assistant turn 0-100, in order.
	ScoreSteps(ctx context.Context, turns []ConversationTurn) ([]float64, error)

	// DetectUncited lists study references that lack an explicit citation.
	DetectUncited(ctx context.Context, text string) ([]string, error)

	// Evaluate writes the narrative report sections.
	Evaluate(ctx context.Context, in NarrativeInputs) (Narrative, error)
}
