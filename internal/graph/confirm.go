package graph

import "strings"

// Outcome classifies a free-text confirmation reply.
type Outcome string

const (
	Confirmed Outcome = "confirmed"
	Cancelled Outcome = "cancelled"
	Unclear   Outcome = "unclear"
)

// confirmWords and cancelWords are matched case-insensitively against the
// whole trimmed reply, not as substrings.
var (
	confirmWords = map[string]bool{"confirm": true, "yes": true, "approve": true}
	cancelWords  = map[string]bool{"cancel": true, "no": true}
)

// ClassifyConfirmation maps a user reply during the confirmation exchange
// onto an outcome. Anything that is not a clear yes or no is Unclear.
func ClassifyConfirmation(reply string) Outcome {
	normalized := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case confirmWords[normalized]:
		return Confirmed
	case cancelWords[normalized]:
		return Cancelled
	}
	return Unclear
}
