package guideline

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Result is per-guideline adherence: for one response, or aggregated across
// many, in which case Matched is a mean rather than a count.
type Result struct {
	Guideline      string   `json:"guideline"`
	Label          string   `json:"label"`
	Matched        float64  `json:"matched"`
	Total          int      `json:"total"`
	AdherenceScore float64  `json:"adherenceScore"`
	Details        []string `json:"details"`
}

const snippetLen = 80

// minTokenLen drops filler words; distinctiveTokenLen keeps only words
// specific enough to signal that a recommendation was actually echoed.
const (
	minTokenLen         = 3
	distinctiveTokenLen = 5
)

func tokenize(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	var tokens []string
	for _, w := range strings.Fields(b.String()) {
		if len(w) >= minTokenLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// recommendationMatches applies the keyword rule: a recommendation matches
// when at least min(2, ceil(0.2*distinctive)) of its distinctive words
// (length > 4) appear in the response token set.
func recommendationMatches(responseTokens map[string]struct{}, rec Recommendation) bool {
	var distinctive []string
	for _, w := range tokenize(rec.Text) {
		if len(w) >= distinctiveTokenLen {
			distinctive = append(distinctive, w)
		}
	}
	if len(distinctive) == 0 {
		return false
	}
	matchCount := 0
	for _, w := range distinctive {
		if _, ok := responseTokens[w]; ok {
			matchCount++
		}
	}
	threshold := math.Min(2, math.Ceil(float64(len(distinctive))*0.2))
	return float64(matchCount) >= threshold
}

// ComputeForResponse scores one response text against every guideline in the
// corpus. Only Class I recommendations count. Pure: identical text yields
// identical results.
func (c *Corpus) ComputeForResponse(text string) []Result {
	responseTokens := make(map[string]struct{})
	for _, w := range tokenize(text) {
		responseTokens[w] = struct{}{}
	}

	results := make([]Result, 0, len(c.Guidelines))
	for _, g := range c.Guidelines {
		matched := 0
		total := 0
		var details []string
		for _, rec := range g.Recommendations {
			if rec.Class != ClassI {
				continue
			}
			total++
			if recommendationMatches(responseTokens, rec) {
				matched++
				details = append(details, snippet(rec.Text))
			}
		}
		score := 0.0
		if total > 0 {
			score = float64(matched) / float64(total) * 100
		}
		results = append(results, Result{
			Guideline:      g.ID,
			Label:          g.Label,
			Matched:        float64(matched),
			Total:          total,
			AdherenceScore: score,
			Details:        details,
		})
	}
	return results
}

// Aggregate averages per-response results by guideline: matched and score
// become means across responses, details become a deduplicated union capped
// at 5 snippets. Mean-of-means keeps a long response list from inflating
// adherence.
func Aggregate(perResponse [][]Result) []Result {
	if len(perResponse) == 0 {
		return nil
	}

	type agg struct {
		label      string
		total      int
		scoreSum   float64
		matchedSum float64
		details    []string
	}
	byGuideline := make(map[string]*agg)
	var order []string

	for _, results := range perResponse {
		for _, r := range results {
			a, ok := byGuideline[r.Guideline]
			if !ok {
				a = &agg{label: r.Label, total: r.Total}
				byGuideline[r.Guideline] = a
				order = append(order, r.Guideline)
			}
			a.scoreSum += r.AdherenceScore
			a.matchedSum += r.Matched
			if len(r.Details) > 2 {
				a.details = append(a.details, r.Details[:2]...)
			} else {
				a.details = append(a.details, r.Details...)
			}
		}
	}
	sort.Strings(order)

	n := float64(len(perResponse))
	out := make([]Result, 0, len(order))
	for _, id := range order {
		a := byGuideline[id]
		out = append(out, Result{
			Guideline:      id,
			Label:          a.label,
			Matched:        math.Round(a.matchedSum/n*10) / 10,
			Total:          a.total,
			AdherenceScore: a.scoreSum / n,
			Details:        dedupeCap(a.details, 5),
		})
	}
	return out
}

func snippet(text string) string {
	if len(text) <= snippetLen {
		return text + "..."
	}
	return text[:snippetLen] + "..."
}

func dedupeCap(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
