// Package intent defines the classified intent record emitted by the
// detection node and the decoding rules that turn raw tool calls into
// validated records.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/casamind/casamind/pkg/types"
)

// Kind is the intent taxonomy. Every record carries exactly one kind.
type Kind string

const (
	Control      Kind = "control"
	Query        Kind = "query"
	Schedule     Kind = "schedule"
	Scene        Kind = "scene"
	Ambiguous    Kind = "ambiguous"
	HighRisk     Kind = "high_risk"
	Conversation Kind = "conversation"
)

// IsValid reports whether k is a member of the taxonomy.
func (k Kind) IsValid() bool {
	switch k {
	case Control, Query, Schedule, Scene, Ambiguous, HighRisk, Conversation:
		return true
	}
	return false
}

// Record is one classified command extracted from a user turn. A single
// utterance may yield several records, one per command.
type Record struct {
	// Kind is the classified intent.
	Kind Kind `json:"intent"`

	// Command is the single command this record covers, as restated by
	// the classifier.
	Command string `json:"user_message"`

	// DeviceUUID identifies the target device for device-directed kinds.
	// Empty for scene, conversation and ambiguous records.
	DeviceUUID string `json:"device_uuid,omitempty"`

	// DeviceName is the matched directory name of the target device.
	DeviceName string `json:"device_name,omitempty"`

	// ProductType is the directory product type of the target device,
	// used to look up control code descriptions.
	ProductType string `json:"product_type,omitempty"`

	// Reason explains why a record is ambiguous. Empty otherwise.
	Reason string `json:"reason,omitempty"`

	// Confidence is the classifier's self-reported certainty in [0, 1].
	Confidence float64 `json:"confidence,omitempty"`
}

// DeviceDirected reports whether this record's kind requires a resolved
// device to act on.
func (r Record) DeviceDirected() bool {
	switch r.Kind {
	case Control, Query, Schedule, HighRisk:
		return true
	}
	return false
}

// ToolName is the function name the classifier must call once per command.
const ToolName = "classify_intent"

// Definition is the tool schema handed to the classifier. The model emits
// one call per command in the utterance.
var Definition = types.ToolDefinition{
	Name:        ToolName,
	Description: "Classify a single user command into a smart home intent. Call once per command.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intent": map[string]any{
				"type": "string",
				"enum": []string{
					string(Control), string(Query), string(Schedule),
					string(Scene), string(Ambiguous), string(HighRisk),
					string(Conversation),
				},
			},
			"user_message": map[string]any{
				"type":        "string",
				"description": "The single command this classification covers.",
			},
			"device_uuid": map[string]any{
				"type":        "string",
				"description": "UUID of the target device from the available devices list, if any.",
			},
			"device_name": map[string]any{
				"type":        "string",
				"description": "Name of the target device from the available devices list, if any.",
			},
			"product_type": map[string]any{
				"type":        "string",
				"description": "Product type of the target device from the available devices list, if any.",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "Why the command is ambiguous. Required when intent is ambiguous.",
			},
			"confidence": map[string]any{
				"type":        "number",
				"description": "Certainty of the classification between 0 and 1.",
			},
		},
		"required": []string{"intent", "user_message"},
	},
}

// ErrNoRecords is returned by Decode when the classifier produced no tool
// calls at all. Callers treat this as a silent end of turn.
var ErrNoRecords = errors.New("intent: classifier returned no tool calls")

// Decode turns the classifier's tool calls into validated records.
//
// Malformed calls degrade rather than fail the turn: a call with
// unparseable arguments becomes an ambiguous record carrying the problem as
// its reason. A device-directed record without a device UUID is forcibly
// rewritten to ambiguous; routing trusts this unconditionally. Unknown
// kinds are preserved so the router can apply its configured policy.
func Decode(calls []types.ToolCall) ([]Record, error) {
	if len(calls) == 0 {
		return nil, ErrNoRecords
	}
	records := make([]Record, 0, len(calls))
	for _, call := range calls {
		records = append(records, decodeCall(call))
	}
	return records, nil
}

func decodeCall(call types.ToolCall) Record {
	var rec Record
	if err := json.Unmarshal([]byte(call.Arguments), &rec); err != nil {
		return Record{
			Kind:   Ambiguous,
			Reason: fmt.Sprintf("could not parse classification: %v", err),
		}
	}
	rec.Kind = Kind(strings.ToLower(strings.TrimSpace(string(rec.Kind))))
	// Unknown kinds pass through as-is; the router applies the configured
	// unknown-intent policy.
	return normalize(rec)
}

// normalize enforces the device invariant: a device-directed record whose
// device UUID is missing or a null placeholder is rewritten to ambiguous.
func normalize(rec Record) Record {
	if !rec.DeviceDirected() {
		return rec
	}
	uuid := strings.TrimSpace(rec.DeviceUUID)
	switch strings.ToLower(uuid) {
	case "", "none", "null", "nil":
		rec.Kind = Ambiguous
		rec.DeviceUUID = ""
		if rec.Reason == "" {
			if rec.DeviceName != "" {
				rec.Reason = fmt.Sprintf("Device %q not found", rec.DeviceName)
			} else {
				rec.Reason = "no matching device found for this command"
			}
		}
		return rec
	}
	rec.DeviceUUID = uuid
	return rec
}
