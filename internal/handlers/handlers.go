// Package handlers implements the graph's handler nodes: device control,
// status query, scheduling, scene activation, clarification and free chat.
//
// Handlers contain failures instead of propagating them: an external call
// that fails becomes a user-visible "Failed: ..." fragment and the rest of
// the batch proceeds. Every handler returns its reply fragments in the
// order the intent records were emitted by the classifier.
package handlers

import (
	"context"
	"log/slog"

	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/journal"
	"github.com/casamind/casamind/internal/oracle"
	"github.com/casamind/casamind/internal/tools"
	"github.com/casamind/casamind/pkg/types"
)

// Backend covers the IoT collaborator operations the handlers invoke.
// Implemented by the iot client.
type Backend interface {
	DeviceFunctions(ctx context.Context, deviceUUID string) ([]devices.Function, error)
	DeviceStatus(ctx context.Context, deviceUUID string) (devices.Status, error)
	BatchControl(ctx context.Context, deviceUUIDs []string, code string, value any) error
	AddSchedule(ctx context.Context, deviceUUID, category, timeOfDay, code string, value any, days []string) error
	ListScenes(ctx context.Context) ([]devices.Scene, error)
	TriggerScene(ctx context.Context, sceneUUID string) error
}

// Turn is the per-turn context shared by all handlers: the original
// undivided utterance, the device directory fetched once at classification
// time (read-only from here on), and the running message history.
type Turn struct {
	Utterance string
	Directory []devices.Device
	History   []types.Message
}

// Handlers bundles the handler nodes and their collaborators.
type Handlers struct {
	oracle   *oracle.Oracle
	backend  Backend
	codebook *devices.Codebook
	journal  journal.Recorder
	tools    *tools.Registry
	logger   *slog.Logger
}

// New builds the handler set. codebook, usage and registry may be nil; the
// affected features degrade gracefully.
func New(o *oracle.Oracle, backend Backend, codebook *devices.Codebook, usage journal.Recorder, registry *tools.Registry, logger *slog.Logger) *Handlers {
	if usage == nil {
		usage = journal.Nop{}
	}
	if registry == nil {
		registry = tools.NewRegistry()
	}
	return &Handlers{
		oracle:   o,
		backend:  backend,
		codebook: codebook,
		journal:  usage,
		tools:    registry,
		logger:   logger.With("component", "handlers"),
	}
}

// descriptions returns the codebook entries for a product type, tolerating
// a missing codebook.
func (h *Handlers) descriptions(productType string) []string {
	if h.codebook == nil {
		return nil
	}
	return h.codebook.Descriptions(productType)
}
