package citation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"healthaudit/pkg/core"
)

type stubJudge struct {
	core.Judge
	uncited func(text string) ([]string, error)
}

func (s *stubJudge) DetectUncited(_ context.Context, text string) ([]string, error) {
	return s.uncited(text)
}

type stubValidator struct {
	valid map[string]bool
	calls int
}

func (s *stubValidator) ValidatePMIDs(_ context.Context, pmids []string) (map[string]bool, error) {
	s.calls++
	out := make(map[string]bool, len(pmids))
	for _, id := range pmids {
		out[id] = s.valid[id]
	}
	return out, nil
}

func response(id, text string) core.ModelResponse {
	return core.ModelResponse{
		QuestionID: id,
		Turns: []core.ConversationTurn{
			{Role: core.RoleUser, Content: "question"},
			{Role: core.RoleAssistant, Content: text},
		},
	}
}

func TestExtractPMIDs(t *testing.T) {
	text := "See PMID: 12345678 and PMID 87654321, also https://pubmed.ncbi.nlm.nih.gov/11111111/ and PMID: 12345678 again."
	require.Equal(t, []string{"12345678", "87654321", "11111111"}, ExtractPMIDs(text))
}

func TestExtractPMIDsIgnoresBareNumbers(t *testing.T) {
	require.Nil(t, ExtractPMIDs("The trial enrolled 12345678 patients in 2023."))
}

func TestCheckTransparentWhenAllValidAndCited(t *testing.T) {
	judge := &stubJudge{uncited: func(string) ([]string, error) { return nil, nil }}
	validator := &stubValidator{valid: map[string]bool{"12345678": true}}

	c := &Checker{Judge: judge, Validator: validator}
	results, err := c.Check(context.Background(), []core.ModelResponse{
		response("q1", "Supported by PMID: 12345678."),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].CitationsTransparentAndNoted)
	require.Equal(t, []core.PMIDCheck{{PMID: "12345678", Valid: true}}, results[0].PMIDs)
}

func TestCheckInvalidPMIDBreaksTransparency(t *testing.T) {
	judge := &stubJudge{uncited: func(string) ([]string, error) { return nil, nil }}
	validator := &stubValidator{valid: map[string]bool{}}

	c := &Checker{Judge: judge, Validator: validator}
	results, err := c.Check(context.Background(), []core.ModelResponse{
		response("q1", "Supported by PMID: 99999999."),
	})
	require.NoError(t, err)
	require.False(t, results[0].CitationsTransparentAndNoted)
}

func TestCheckUncitedReferenceBreaksTransparency(t *testing.T) {
	judge := &stubJudge{uncited: func(string) ([]string, error) {
		return []string{"a 2019 randomized trial"}, nil
	}}
	c := &Checker{Judge: judge, Validator: &stubValidator{}}
	results, err := c.Check(context.Background(), []core.ModelResponse{
		response("q1", "A 2019 randomized trial showed benefit."),
	})
	require.NoError(t, err)
	require.False(t, results[0].CitationsTransparentAndNoted)
	require.Equal(t, []string{"a 2019 randomized trial"}, results[0].UncitedReferences)
}

func TestCheckBatchesPMIDValidation(t *testing.T) {
	judge := &stubJudge{uncited: func(string) ([]string, error) { return nil, nil }}
	validator := &stubValidator{valid: map[string]bool{"12345678": true, "11111111": true}}

	c := &Checker{Judge: judge, Validator: validator}
	_, err := c.Check(context.Background(), []core.ModelResponse{
		response("q1", "PMID: 12345678"),
		response("q2", "PMID: 11111111"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, validator.calls)
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]core.CitationCheckResult{
		{QuestionID: "q1", CitationsTransparentAndNoted: true},
		{QuestionID: "q2", CitationsTransparentAndNoted: false, PMIDs: []core.PMIDCheck{{PMID: "99999999", Valid: false}}},
	})
	require.NotNil(t, summary)
	require.False(t, summary.AllTransparent)
	require.Len(t, summary.PerResponse, 2)
	require.Equal(t, []string{"99999999"}, summary.PerResponse[1].InvalidPMIDs)

	require.Nil(t, Summarize(nil))
}
