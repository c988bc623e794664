package core

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message in a probing conversation.
type ConversationTurn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// DemographicVariant marks a question as a same-scenario variant of a base
// question that differs only in the stated demographic.
type DemographicVariant struct {
	BaseQuestionID string `json:"baseQuestionId" yaml:"base_question_id"`
	Dimension      string `json:"dimension" yaml:"dimension"`
	Value          string `json:"value" yaml:"value"`
}

// TestQuestion is one probing question aimed at a failure mode.
type TestQuestion struct {
	ID                 string              `json:"id" yaml:"id"`
	FailureMode        string              `json:"failureMode" yaml:"failure_mode"`
	Text               string              `json:"text" yaml:"text"`
	Enabled            bool                `json:"enabled" yaml:"enabled"`
	DatasetSource      string              `json:"datasetSource,omitempty" yaml:"dataset_source,omitempty"`
	GroundTruth        string              `json:"groundTruth,omitempty" yaml:"ground_truth,omitempty"`
	DemographicVariant *DemographicVariant `json:"demographicVariant,omitempty" yaml:"demographic_variant,omitempty"`
}

// ModelResponse is one completed probing exchange with the target model.
// Immutable once collected; every downstream engine reads from it.
type ModelResponse struct {
	QuestionID  string             `json:"questionId" yaml:"question_id"`
	Question    string             `json:"question" yaml:"question"`
	FailureMode string             `json:"failureMode" yaml:"failure_mode"`
	Turns       []ConversationTurn `json:"turns" yaml:"turns"`
	// ConfidenceScore is 1-100, set only when the question carried ground
	// truth and the run requested self-rated confidence.
	ConfidenceScore *int `json:"confidenceScore,omitempty" yaml:"confidence_score,omitempty"`
}

// LastAssistantText returns the content of the final assistant turn, or "".
func (r ModelResponse) LastAssistantText() string {
	for i := len(r.Turns) - 1; i >= 0; i-- {
		if r.Turns[i].Role == RoleAssistant {
			return r.Turns[i].Content
		}
	}
	return ""
}

// GoldenAnswer is a human-authored ideal response for a failure mode.
type GoldenAnswer struct {
	FailureMode    string `json:"failureMode" yaml:"failure_mode"`
	SampleQuestion string `json:"sampleQuestion" yaml:"sample_question"`
	SampleAnswer   string `json:"sampleAnswer" yaml:"sample_answer"`
	GoldenAnswer   string `json:"goldenAnswer" yaml:"golden_answer"`
}

// ResponseScore pairs a response with its similarity to the golden answer.
type ResponseScore struct {
	QuestionID string  `json:"questionId" yaml:"question_id"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// SimilarityResult is the per-failure-mode golden-answer similarity signal.
type SimilarityResult struct {
	FailureMode       string          `json:"failureMode" yaml:"failure_mode"`
	AverageSimilarity float64         `json:"averageSimilarity" yaml:"average_similarity"`
	ResponseScores    []ResponseScore `json:"responseScores" yaml:"response_scores"`
}

// PMIDCheck records whether one extracted PMID resolved in PubMed.
type PMIDCheck struct {
	PMID  string `json:"pmid" yaml:"pmid"`
	Valid bool   `json:"valid" yaml:"valid"`
}

// CitationCheckResult is the per-response citation-transparency verdict.
type CitationCheckResult struct {
	QuestionID                   string      `json:"questionId" yaml:"question_id"`
	CitationsTransparentAndNoted bool        `json:"citationsTransparentAndNoted" yaml:"citations_transparent_and_noted"`
	PMIDs                        []PMIDCheck `json:"pmids" yaml:"pmids"`
	UncitedReferences            []string    `json:"uncitedReferences" yaml:"uncited_references"`
}

// ConceptResponseScore is the per-response concept-validation outcome.
type ConceptResponseScore struct {
	QuestionID    string  `json:"questionId" yaml:"question_id"`
	FailureMode   string  `json:"failureMode" yaml:"failure_mode"`
	ValidConcepts int     `json:"validConcepts" yaml:"valid_concepts"`
	TotalConcepts int     `json:"totalConcepts" yaml:"total_concepts"`
	ScorePct      float64 `json:"scorePct" yaml:"score_pct"`
}

// ConceptModeScore aggregates concept validity per failure mode.
type ConceptModeScore struct {
	FailureMode   string  `json:"failureMode" yaml:"failure_mode"`
	AvgScorePct   float64 `json:"avgScorePct" yaml:"avg_score_pct"`
	ResponseCount int     `json:"responseCount" yaml:"response_count"`
}

// ConceptValidationResult is the full concept-validation signal.
type ConceptValidationResult struct {
	PerResponse    []ConceptResponseScore `json:"perResponse" yaml:"per_response"`
	PerFailureMode []ConceptModeScore     `json:"perFailureMode" yaml:"per_failure_mode"`
	Summary        string                 `json:"summary" yaml:"summary"`
}

// ConversationScore is the per-conversation multi-step reasoning outcome.
type ConversationScore struct {
	QuestionID     string    `json:"questionId" yaml:"question_id"`
	StepScores     []float64 `json:"stepScores" yaml:"step_scores"`
	AggregateScore float64   `json:"aggregateScore" yaml:"aggregate_score"`
}

// MultiStepResult is the multi-step reasoning signal. OverallScore is the
// mean of per-conversation aggregates, not a flat mean over all steps.
type MultiStepResult struct {
	PerConversation []ConversationScore `json:"perConversation" yaml:"per_conversation"`
	OverallScore    float64             `json:"overallScore" yaml:"overall_score"`
	Summary         string              `json:"summary" yaml:"summary"`
}
