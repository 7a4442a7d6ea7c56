package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/casamind/casamind/internal/intent"
)

// Suspension is the serialized pending-confirmation state stored on the
// session while a turn waits for a human reply. Together with the session
// history it fully describes the in-flight turn, so resumption is a plain
// function call with no live state.
type Suspension struct {
	// Question is what the user is being asked.
	Question string `json:"question"`

	// ActionSummary describes the pending high-risk commands.
	ActionSummary string `json:"action_summary"`

	// Pending holds the high-risk records to execute on confirmation.
	Pending []intent.Record `json:"pending"`

	// Retries counts unclear replies so the re-prompt loop stays bounded.
	Retries int `json:"retries"`
}

// newSuspension builds the pause payload for a batch of high-risk records.
func newSuspension(records []intent.Record) *Suspension {
	summaries := make([]string, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, rec.Command)
	}
	return &Suspension{
		Question:      "Do you want to confirm this high-risk action?",
		ActionSummary: strings.Join(summaries, "; "),
		Pending:       records,
	}
}

// encode serializes the suspension for session storage.
func (s *Suspension) encode() (json.RawMessage, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("graph: encode suspension: %w", err)
	}
	return payload, nil
}

// decodeSuspension restores a suspension from session storage.
func decodeSuspension(payload json.RawMessage) (*Suspension, error) {
	var s Suspension
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("graph: decode suspension: %w", err)
	}
	return &s, nil
}

// asControl reinterprets the pending high-risk records as control records
// for execution after confirmation.
func (s *Suspension) asControl() []intent.Record {
	out := make([]intent.Record, len(s.Pending))
	for i, rec := range s.Pending {
		rec.Kind = intent.Control
		out[i] = rec
	}
	return out
}
