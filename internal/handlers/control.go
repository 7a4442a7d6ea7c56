package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/intent"
	"github.com/casamind/casamind/internal/journal"
	"github.com/casamind/casamind/internal/oracle"
)

// NoControlActions is the canned fragment emitted when no control record
// produced an action.
const NoControlActions = "No control actions were performed."

// Control executes the control-kind records: each is resolved against its
// device's codebook description and, on success, sent to the backend.
// Per-device work runs concurrently; fragments come back in record order.
func (h *Handlers) Control(ctx context.Context, turn *Turn, records []intent.Record) []string {
	perRecord := make([][]string, len(records))
	g, gctx := errgroup.WithContext(ctx)
	for i, rec := range records {
		g.Go(func() error {
			perRecord[i] = h.controlOne(gctx, turn, rec)
			return nil
		})
	}
	// Handlers never return errors through the group; the join is the
	// point.
	_ = g.Wait()

	var fragments []string
	for _, fs := range perRecord {
		fragments = append(fragments, fs...)
	}
	if len(fragments) == 0 {
		return []string{NoControlActions}
	}
	return fragments
}

// controlOne resolves and executes a single control record. A device that
// is not in the directory is skipped without output.
func (h *Handlers) controlOne(ctx context.Context, turn *Turn, rec intent.Record) []string {
	dev, ok := devices.ByUUID(turn.Directory, rec.DeviceUUID)
	if !ok {
		h.logger.Warn("control target not in directory", "device", rec.DeviceUUID)
		return nil
	}

	recCtx, err := json.Marshal(map[string]string{
		"device_uuid":  dev.UUID,
		"user_message": rec.Command,
		"product_type": dev.ProductType,
	})
	if err != nil {
		return []string{fmt.Sprintf("Failed: %v", err)}
	}

	resolutions, err := h.oracle.ResolveControl(ctx,
		[]string{string(recCtx)},
		h.descriptions(dev.ProductType),
		turn.Utterance)
	if err != nil {
		return []string{fmt.Sprintf("Failed: %v", err)}
	}

	var out []string
	for _, res := range resolutions {
		if res.Status != oracle.Success {
			reason := res.FailureReason
			if reason == "" {
				reason = "unknown failure"
			}
			out = append(out, "Failed: "+reason)
			continue
		}
		if err := h.backend.BatchControl(ctx, []string{dev.UUID}, res.Code, res.Value.Raw()); err != nil {
			out = append(out, fmt.Sprintf("Failed: %v", err))
			continue
		}
		h.journal.RecordUsage(ctx, journal.UsageRecord{
			Timestamp:    time.Now(),
			Subspace:     dev.Subspace.Name,
			SubspaceUUID: dev.Subspace.UUID,
			DeviceName:   dev.Name,
			DeviceUUID:   dev.UUID,
			Code:         res.Code,
			Value:        res.Value.Raw(),
		})
		out = append(out, fmt.Sprintf("Success for %s: set %s to %v", dev.Name, res.Code, res.Value.Raw()))
	}
	return out
}
