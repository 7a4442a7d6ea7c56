package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/casamind/casamind/internal/intent"
)

// Query reads the current status of each query-kind record's device. This
// handler never calls the oracle; raw readings are surfaced as-is and the
// enhancer makes them presentable.
func (h *Handlers) Query(ctx context.Context, turn *Turn, records []intent.Record) []string {
	fragments := make([]string, 0, len(records))
	for _, rec := range records {
		status, err := h.backend.DeviceStatus(ctx, rec.DeviceUUID)
		if err != nil {
			fragments = append(fragments, fmt.Sprintf("Failed to read status of %s: %v", deviceLabel(turn, rec), err))
			continue
		}
		payload, err := json.Marshal(status.Readings)
		if err != nil {
			fragments = append(fragments, fmt.Sprintf("Failed to read status of %s: %v", deviceLabel(turn, rec), err))
			continue
		}
		fragments = append(fragments, fmt.Sprintf("Status of %s: %s", deviceLabel(turn, rec), payload))
	}
	return fragments
}

// deviceLabel prefers the directory name over the raw UUID in user-facing
// fragments.
func deviceLabel(turn *Turn, rec intent.Record) string {
	for _, d := range turn.Directory {
		if d.UUID == rec.DeviceUUID {
			return d.Name
		}
	}
	if rec.DeviceName != "" {
		return rec.DeviceName
	}
	return rec.DeviceUUID
}
