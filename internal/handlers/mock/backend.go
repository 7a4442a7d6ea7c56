// Package mock provides a scriptable in-memory implementation of
// [handlers.Backend] that records every call for assertion in tests.
package mock

import (
	"context"
	"sync"

	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/handlers"
)

// ControlCall records one BatchControl invocation.
type ControlCall struct {
	DeviceUUIDs []string
	Code        string
	Value       any
}

// ScheduleCall records one AddSchedule invocation.
type ScheduleCall struct {
	DeviceUUID string
	Category   string
	Time       string
	Code       string
	Value      any
	Days       []string
}

// Backend is a mock handlers.Backend. Zero value is usable; set the result
// and error fields to script behavior.
type Backend struct {
	mu sync.Mutex

	Functions    map[string][]devices.Function
	FunctionsErr error

	Statuses  map[string]devices.Status
	StatusErr error

	ControlErr   error
	ControlCalls []ControlCall

	ScheduleErr   error
	ScheduleCalls []ScheduleCall

	Scenes    []devices.Scene
	ScenesErr error

	TriggerErr      error
	TriggeredScenes []string
}

var _ handlers.Backend = (*Backend)(nil)

func (b *Backend) DeviceFunctions(_ context.Context, deviceUUID string) ([]devices.Function, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FunctionsErr != nil {
		return nil, b.FunctionsErr
	}
	return b.Functions[deviceUUID], nil
}

func (b *Backend) DeviceStatus(_ context.Context, deviceUUID string) (devices.Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.StatusErr != nil {
		return devices.Status{}, b.StatusErr
	}
	return b.Statuses[deviceUUID], nil
}

func (b *Backend) BatchControl(_ context.Context, deviceUUIDs []string, code string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ControlCalls = append(b.ControlCalls, ControlCall{DeviceUUIDs: deviceUUIDs, Code: code, Value: value})
	return b.ControlErr
}

func (b *Backend) AddSchedule(_ context.Context, deviceUUID, category, timeOfDay, code string, value any, days []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ScheduleCalls = append(b.ScheduleCalls, ScheduleCall{
		DeviceUUID: deviceUUID,
		Category:   category,
		Time:       timeOfDay,
		Code:       code,
		Value:      value,
		Days:       days,
	})
	return b.ScheduleErr
}

func (b *Backend) ListScenes(context.Context) ([]devices.Scene, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ScenesErr != nil {
		return nil, b.ScenesErr
	}
	return b.Scenes, nil
}

func (b *Backend) TriggerScene(_ context.Context, sceneUUID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.TriggeredScenes = append(b.TriggeredScenes, sceneUUID)
	return b.TriggerErr
}
