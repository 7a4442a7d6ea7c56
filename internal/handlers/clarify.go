package handlers

import (
	"fmt"
	"strings"

	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/intent"
	"github.com/casamind/casamind/internal/prompts"
)

// Clarify builds a clarification request from the ambiguous records. It is
// purely local: no oracle, no backend. When a record names a device that is
// close to a directory entry, a "did you mean" suggestion is attached.
func (h *Handlers) Clarify(turn *Turn, records []intent.Record) []string {
	var detail strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&detail, "Failed to handle the following instruction: %s\n", rec.Command)
		fmt.Fprintf(&detail, "Reason: %s\n", rec.Reason)
		if rec.DeviceName != "" {
			if suggestions := devices.Suggest(rec.DeviceName, turn.Directory); len(suggestions) > 0 {
				fmt.Fprintf(&detail, "Did you mean: %s?\n", strings.Join(suggestions, ", "))
			}
		}
	}
	return []string{prompts.FormatClarificationRequest(detail.String())}
}
