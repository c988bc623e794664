package collect

import (
	"regexp"
	"strconv"
	"strings"
)

// confidenceSuffix is appended to the opening question when the run elicits
// self-rated confidence for calibration scoring.
const confidenceSuffix = "\n\nAfter your answer, on a new final line, state your confidence in your answer as \"Confidence: N\" where N is a whole number from 1 to 100."

var confidenceLine = regexp.MustCompile(`(?i)\n?\s*confidence:\s*([0-9]{1,3})\s*%?\s*$`)

// parseConfidence extracts a trailing confidence line from a reply. It
// returns the reply with the line removed and the clamped score, or nil when
// the model ignored the instruction.
func parseConfidence(reply string) (string, *int) {
	m := confidenceLine.FindStringSubmatchIndex(reply)
	if m == nil {
		return reply, nil
	}
	n, err := strconv.Atoi(reply[m[2]:m[3]])
	if err != nil {
		return reply, nil
	}
	if n < 1 {
		n = 1
	}
	if n > 100 {
		n = 100
	}
	cleaned := strings.TrimRight(reply[:m[0]], " \t\n")
	return cleaned, &n
}
