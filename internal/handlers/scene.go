package handlers

import (
	"context"
	"fmt"

	"github.com/casamind/casamind/internal/intent"
)

// SceneNotFound is the canned fragment for an unmatched or failed scene
// activation.
const SceneNotFound = "Scene not found or could not be activated"

// Scene activates the scene referenced by the first scene-kind record.
// Only one scene action per turn is honored even when several scene
// records exist.
func (h *Handlers) Scene(ctx context.Context, turn *Turn, records []intent.Record) []string {
	if len(records) == 0 {
		return nil
	}
	command := records[0].Command

	scenes, err := h.backend.ListScenes(ctx)
	if err != nil {
		h.logger.Warn("scene listing failed", "error", err)
		return []string{SceneNotFound}
	}

	match, err := h.oracle.MatchScene(ctx, command, scenes)
	if err != nil {
		h.logger.Warn("scene matching failed", "error", err)
		return []string{SceneNotFound}
	}
	if !match.Matched() {
		return []string{SceneNotFound}
	}

	if err := h.backend.TriggerScene(ctx, match.UUID); err != nil {
		h.logger.Warn("scene trigger failed", "scene", match.UUID, "error", err)
		return []string{SceneNotFound}
	}
	return []string{fmt.Sprintf("%s Scene: activated", match.Name)}
}
