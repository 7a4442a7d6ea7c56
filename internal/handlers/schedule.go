package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/intent"
	"github.com/casamind/casamind/internal/oracle"
)

// scheduleCategory is the fixed category passed to the backend schedule
// endpoint.
const scheduleCategory = "category_name"

// Schedule extracts schedule parameters for each schedule-kind record in
// one oracle call and registers the successful ones with the backend.
//
// The extracted time and days pass through to the backend without local
// validation; the oracle is trusted to emit HH:MM and 3-letter weekdays.
func (h *Handlers) Schedule(ctx context.Context, turn *Turn, records []intent.Record) []string {
	var userMessages []string
	var descriptions []string
	seenCodes := make(map[string]bool)

	for _, rec := range records {
		entry := map[string]any{
			"device_uuid":  rec.DeviceUUID,
			"user_message": rec.Command,
		}
		fns, err := h.backend.DeviceFunctions(ctx, rec.DeviceUUID)
		if err != nil {
			h.logger.Warn("failed at fetching functions", "device", rec.DeviceUUID, "error", err)
		} else {
			entry["possible_values"] = devices.DescribeFunctions(fns)
			descriptions = append(descriptions, h.codeDescriptions(fns, seenCodes)...)
		}
		payload, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		userMessages = append(userMessages, string(payload))
	}
	if len(userMessages) == 0 {
		return []string{"Failed: no schedulable devices in this request"}
	}

	resolutions, err := h.oracle.ResolveSchedule(ctx, userMessages, descriptions)
	if err != nil {
		return []string{fmt.Sprintf("Failed: %v", err)}
	}

	var fragments []string
	for _, res := range resolutions {
		if res.Status != oracle.Success {
			reason := res.FailureReason
			if reason == "" {
				reason = "unknown failure"
			}
			fragments = append(fragments, "Failed: "+reason)
			continue
		}
		err := h.backend.AddSchedule(ctx, res.DeviceUUID, scheduleCategory, res.Time, res.Code, res.Value.Raw(), res.Days)
		if err != nil {
			fragments = append(fragments, fmt.Sprintf("Failed: %v", err))
			continue
		}
		fragments = append(fragments, fmt.Sprintf("Scheduled %s=%v on %s at %s (%s)",
			res.Code, res.Value.Raw(), res.DeviceUUID, res.Time, strings.Join(res.Days, ", ")))
	}
	if len(fragments) == 0 {
		return []string{"Failed: no schedule could be extracted"}
	}
	return fragments
}

// codeDescriptions annotates the prompt with shared code semantics for the
// codes this device actually exposes, once per code.
func (h *Handlers) codeDescriptions(fns []devices.Function, seen map[string]bool) []string {
	if h.codebook == nil {
		return nil
	}
	known := h.codebook.CodeDescriptions()
	var out []string
	for _, fn := range fns {
		if seen[fn.Code] {
			continue
		}
		if desc, ok := known[fn.Code]; ok {
			seen[fn.Code] = true
			out = append(out, fmt.Sprintf("%s: %s", fn.Code, desc))
		}
	}
	return out
}
