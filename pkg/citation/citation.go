// Package citation verifies that literature references in model responses are
// explicit and resolvable.
package citation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"healthaudit/pkg/core"
)

// PMIDValidator resolves PubMed identifiers in bulk.
type PMIDValidator interface {
	ValidatePMIDs(ctx context.Context, pmids []string) (map[string]bool, error)
}

var (
	labeledPMID = regexp.MustCompile(`(?i)\bPMID[:\s#]*([0-9]{4,8})\b`)
	pubmedURL   = regexp.MustCompile(`pubmed\.ncbi\.nlm\.nih\.gov/([0-9]{4,8})`)
)

// ExtractPMIDs returns the distinct PubMed IDs referenced in text, in order
// of first appearance. Only labeled IDs and PubMed URLs count; bare numbers
// are too ambiguous in clinical text.
func ExtractPMIDs(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, re := range []*regexp.Regexp{labeledPMID, pubmedURL} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			id := m[1]
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Checker validates every referenced PMID against PubMed and asks the judge
// for study mentions that carry no citation at all.
type Checker struct {
	Judge     core.Judge
	Validator PMIDValidator
	Logger    *zap.Logger
}

// Check scores each response. A response is transparent when every PMID it
// cites resolves and the judge finds no uncited study claims. PMIDs are
// validated in one batch across all responses.
func (c *Checker) Check(ctx context.Context, responses []core.ModelResponse) ([]core.CitationCheckResult, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	perResponse := make([][]string, len(responses))
	var all []string
	seen := make(map[string]struct{})
	for i, resp := range responses {
		pmids := ExtractPMIDs(resp.LastAssistantText())
		perResponse[i] = pmids
		for _, id := range pmids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				all = append(all, id)
			}
		}
	}

	validity := map[string]bool{}
	if len(all) > 0 {
		var err error
		validity, err = c.Validator.ValidatePMIDs(ctx, all)
		if err != nil {
			return nil, fmt.Errorf("citation: validate pmids: %w", err)
		}
	}

	results := make([]core.CitationCheckResult, 0, len(responses))
	for i, resp := range responses {
		text := resp.LastAssistantText()
		result := core.CitationCheckResult{QuestionID: resp.QuestionID}

		allValid := true
		for _, id := range perResponse[i] {
			valid := validity[id]
			result.PMIDs = append(result.PMIDs, core.PMIDCheck{PMID: id, Valid: valid})
			if !valid {
				allValid = false
			}
		}

		if strings.TrimSpace(text) != "" {
			uncited, err := c.Judge.DetectUncited(ctx, text)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("citation: %w", ctx.Err())
				}
				logger.Warn("uncited-reference detection failed, treating as opaque",
					zap.String("question_id", resp.QuestionID),
					zap.Error(err))
				allValid = false
			}
			result.UncitedReferences = uncited
		}

		result.CitationsTransparentAndNoted = allValid && len(result.UncitedReferences) == 0
		results = append(results, result)
	}
	return results, nil
}

// Summarize folds per-response checks into the report section.
func Summarize(checks []core.CitationCheckResult) *core.CitationSummary {
	if len(checks) == 0 {
		return nil
	}
	summary := &core.CitationSummary{AllTransparent: true}
	for _, check := range checks {
		status := core.CitationResponseStatus{
			QuestionID:                   check.QuestionID,
			CitationsTransparentAndNoted: check.CitationsTransparentAndNoted,
			UncitedReferences:            check.UncitedReferences,
		}
		for _, pmid := range check.PMIDs {
			if !pmid.Valid {
				status.InvalidPMIDs = append(status.InvalidPMIDs, pmid.PMID)
			}
		}
		if !check.CitationsTransparentAndNoted {
			summary.AllTransparent = false
		}
		summary.PerResponse = append(summary.PerResponse, status)
	}
	return summary
}
