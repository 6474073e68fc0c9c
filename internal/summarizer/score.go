package summarizer

import "strings"

// Body terms that hint at time pressure or a pending decision.
var urgencyTerms = []string{"today", "tomorrow", "deadline", "invoice", "approve", "schedule"}

// scoreImportance assigns a crude 0-3 importance score from the message body
// and the raw From header. A From header without angle brackets is treated as
// a personal, non-list sender.
func scoreImportance(body, sender string) int {
	body = strings.ToLower(body)

	score := 0
	if strings.Contains(body, "?") || strings.Contains(body, "please") {
		score++
	}
	for _, term := range urgencyTerms {
		if strings.Contains(body, term) {
			score++
			break
		}
	}
	if !strings.Contains(sender, "<") {
		score++
	}
	return score
}
