package judge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"healthaudit/pkg/core"
)

type stubGenerator struct {
	reply string
	err   error
	last  string
}

func (s *stubGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	s.last = prompt
	return s.reply, s.err
}

func TestFollowUpStripsQuoting(t *testing.T) {
	gen := &stubGenerator{reply: "\n\"Should I stop taking it right away?\"\n"}
	j := New(gen, nil)
	followUp, err := j.FollowUp(context.Background(), "q", "r", "dosing-errors")
	require.NoError(t, err)
	require.Equal(t, "Should I stop taking it right away?", followUp)
}

func TestGradeCorrectnessParsesFencedJSON(t *testing.T) {
	gen := &stubGenerator{reply: "```json\n[true, false]\n```"}
	j := New(gen, nil)
	verdicts, err := j.GradeCorrectness(context.Background(), []core.GradingPair{
		{QuestionID: "q1", GroundTruth: "metformin", ResponseText: "metformin"},
		{QuestionID: "q2", GroundTruth: "insulin", ResponseText: "aspirin"},
	})
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, verdicts)
}

func TestGradeCorrectnessRejectsWrongArity(t *testing.T) {
	gen := &stubGenerator{reply: "[true]"}
	j := New(gen, nil)
	_, err := j.GradeCorrectness(context.Background(), []core.GradingPair{
		{QuestionID: "q1"}, {QuestionID: "q2"},
	})
	require.Error(t, err)
}

func TestGradeCorrectnessEmptyInput(t *testing.T) {
	gen := &stubGenerator{reply: "should not be called"}
	j := New(gen, nil)
	verdicts, err := j.GradeCorrectness(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, verdicts)
	require.Empty(t, gen.last)
}

func TestScoreStepsClampsAndChecksArity(t *testing.T) {
	turns := []core.ConversationTurn{
		{Role: core.RoleUser, Content: "q1"},
		{Role: core.RoleAssistant, Content: "a1"},
		{Role: core.RoleUser, Content: "q2"},
		{Role: core.RoleAssistant, Content: "a2"},
	}

	gen := &stubGenerator{reply: "[150, -10]"}
	j := New(gen, nil)
	scores, err := j.ScoreSteps(context.Background(), turns)
	require.NoError(t, err)
	require.Equal(t, []float64{100, 0}, scores)

	gen.reply = "[90]"
	_, err = j.ScoreSteps(context.Background(), turns)
	require.Error(t, err)
}

func TestExtractTermsParsesPrefixedReply(t *testing.T) {
	gen := &stubGenerator{reply: "Here are the terms: [\"metformin\", \"type 2 diabetes\"]"}
	j := New(gen, nil)
	terms, err := j.ExtractTerms(context.Background(), "some text")
	require.NoError(t, err)
	require.Equal(t, []string{"metformin", "type 2 diabetes"}, terms)
}

func TestDetectUncitedMalformedReplyIsError(t *testing.T) {
	gen := &stubGenerator{reply: "I could not find any."}
	j := New(gen, nil)
	_, err := j.DetectUncited(context.Background(), "some text")
	require.Error(t, err)
}

func TestEvaluateFillsSimilarityDeterministically(t *testing.T) {
	gen := &stubGenerator{reply: `{
		"overallSafetyScore": 120,
		"summary": "Mostly safe.",
		"categoryBreakdowns": [{"failureMode": "dosing-errors", "label": "Dosing Errors", "score": 70, "strengths": [], "weaknesses": [], "criticalFailures": []}],
		"criticalFailures": [],
		"recommendations": ["Add dosage disclaimers."]
	}`}
	j := New(gen, nil)

	narrative, err := j.Evaluate(context.Background(), core.NarrativeInputs{
		FailureModes: []core.FailureMode{{ID: "dosing-errors", Label: "Dosing Errors"}},
		SimilarityResults: []core.SimilarityResult{
			{FailureMode: "dosing-errors", AverageSimilarity: 0.82},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 100.0, narrative.OverallSafetyScore)
	require.Equal(t, "Mostly safe.", narrative.Summary)
	require.Len(t, narrative.GoldenAnswerSimilarity, 1)
	require.Equal(t, "Dosing Errors", narrative.GoldenAnswerSimilarity[0].Label)
	require.Equal(t, 0.82, narrative.GoldenAnswerSimilarity[0].AverageSimilarity)
}
