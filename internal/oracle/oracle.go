// Package oracle wraps the raw LLM provider with the typed calls the
// conversation graph makes: intent classification, control and schedule
// resolution, scene matching, free conversation and tone enhancement.
//
// Every structured call goes through tool calling so the model's output is
// machine-parseable. Value fields are decoded loosely because models emit
// booleans, numbers and strings interchangeably, but never compound values.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/observe"
	"github.com/casamind/casamind/internal/intent"
	"github.com/casamind/casamind/internal/prompts"
	"github.com/casamind/casamind/pkg/provider/llm"
	"github.com/casamind/casamind/pkg/types"
)

// Status of a resolution attempt as reported by the model.
type Status string

const (
	Success Status = "Success"
	Failure Status = "Failure"
)

// ControlResolution is the model's mapping of one command onto a device
// function code and value.
type ControlResolution struct {
	Status        Status `json:"status"`
	DeviceUUID    string `json:"device_uuid"`
	Code          string `json:"code,omitempty"`
	Value         Value  `json:"value,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// ScheduleResolution is the model's extraction of schedule parameters for
// one command.
type ScheduleResolution struct {
	Status        Status   `json:"status"`
	DeviceUUID    string   `json:"device_uuid"`
	Code          string   `json:"code,omitempty"`
	Value         Value    `json:"value,omitempty"`
	Time          string   `json:"time,omitempty"`
	Days          []string `json:"days,omitempty"`
	FailureReason string   `json:"failure_reason,omitempty"`
}

// SceneMatch is the model's pick from the available scenes. UUID is empty
// when no scene matched.
type SceneMatch struct {
	Name string `json:"scene_name"`
	UUID string `json:"scene_uuid,omitempty"`
}

// Matched reports whether the model found a scene. Null placeholders from
// the model count as no match.
func (m SceneMatch) Matched() bool {
	switch strings.ToLower(strings.TrimSpace(m.UUID)) {
	case "", "none", "null", "nil":
		return false
	}
	return true
}

// Oracle issues typed calls against an LLM provider.
type Oracle struct {
	provider  llm.Provider
	logger    *slog.Logger
	metrics   *observe.Metrics
	maxTokens int
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithMaxTokens caps completion length per call. Zero leaves the
// provider's default in place.
func WithMaxTokens(n int) Option {
	return func(o *Oracle) {
		o.maxTokens = n
	}
}

// New builds an oracle over the given provider.
func New(provider llm.Provider, logger *slog.Logger, opts ...Option) *Oracle {
	o := &Oracle{
		provider: provider,
		logger:   logger.With("component", "oracle"),
		metrics:  observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Oracle) complete(ctx context.Context, call string, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if o.maxTokens > 0 && req.MaxTokens == 0 {
		req.MaxTokens = o.maxTokens
	}
	start := time.Now()
	resp, err := o.provider.Complete(ctx, req)
	o.metrics.RecordOracleCall(ctx, call, time.Since(start).Seconds())
	return resp, err
}

// Classify decomposes an utterance into intent records against the device
// directory. The model emits one tool call per command; records come back
// in the model's emission order.
func (o *Oracle) Classify(ctx context.Context, utterance string, dir []devices.Device) ([]intent.Record, error) {
	resp, err := o.complete(ctx, "classify", llm.CompletionRequest{
		SystemPrompt: prompts.FormatIntentDetection(utterance, devices.Listing(dir)),
		Messages:     []types.Message{types.UserMessage(utterance)},
		Tools:        []types.ToolDefinition{intent.Definition},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: classify: %w", err)
	}
	records, err := intent.Decode(resp.ToolCalls)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("classified utterance", "records", len(records))
	return records, nil
}

// ResolveControl asks the model to map commands onto function codes and
// values. userMessages carries one rendered command context per record,
// descriptions the codebook entries for the involved product types.
func (o *Oracle) ResolveControl(ctx context.Context, userMessages, descriptions []string, originalPrompt string) ([]ControlResolution, error) {
	resp, err := o.complete(ctx, "resolve_control", llm.CompletionRequest{
		SystemPrompt: prompts.FormatDeviceControl(userMessages, descriptions, originalPrompt),
		Messages:     []types.Message{types.UserMessage(originalPrompt)},
		Tools:        []types.ToolDefinition{controlDefinition},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: resolve control: %w", err)
	}
	out := make([]ControlResolution, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		var res ControlResolution
		if err := json.Unmarshal([]byte(call.Arguments), &res); err != nil {
			out = append(out, ControlResolution{
				Status:        Failure,
				FailureReason: fmt.Sprintf("unparseable resolution: %v", err),
			})
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

// ResolveSchedule asks the model to extract schedule parameters for the
// given commands.
func (o *Oracle) ResolveSchedule(ctx context.Context, userMessages, descriptions []string) ([]ScheduleResolution, error) {
	resp, err := o.complete(ctx, "resolve_schedule", llm.CompletionRequest{
		SystemPrompt: prompts.FormatDeviceSchedule(userMessages, descriptions),
		Messages:     []types.Message{types.UserMessage(strings.Join(userMessages, "\n"))},
		Tools:        []types.ToolDefinition{scheduleDefinition},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: resolve schedule: %w", err)
	}
	out := make([]ScheduleResolution, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		var res ScheduleResolution
		if err := json.Unmarshal([]byte(call.Arguments), &res); err != nil {
			out = append(out, ScheduleResolution{
				Status:        Failure,
				FailureReason: fmt.Sprintf("unparseable resolution: %v", err),
			})
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

// MatchScene asks the model which of the available scenes the command
// refers to. Only the first tool call is considered.
func (o *Oracle) MatchScene(ctx context.Context, command string, scenes []devices.Scene) (SceneMatch, error) {
	resp, err := o.complete(ctx, "match_scene", llm.CompletionRequest{
		SystemPrompt: prompts.FormatSceneDetection(command, scenes),
		Messages:     []types.Message{types.UserMessage(command)},
		Tools:        []types.ToolDefinition{sceneDefinition},
	})
	if err != nil {
		return SceneMatch{}, fmt.Errorf("oracle: match scene: %w", err)
	}
	if len(resp.ToolCalls) == 0 {
		return SceneMatch{}, nil
	}
	var match SceneMatch
	if err := json.Unmarshal([]byte(resp.ToolCalls[0].Arguments), &match); err != nil {
		return SceneMatch{}, fmt.Errorf("oracle: decode scene match: %w", err)
	}
	return match, nil
}

// Converse runs one free-form chat completion over the given history,
// optionally exposing tools. The caller owns the tool loop.
func (o *Oracle) Converse(ctx context.Context, history []types.Message, tools []types.ToolDefinition) (*llm.CompletionResponse, error) {
	resp, err := o.complete(ctx, "converse", llm.CompletionRequest{
		SystemPrompt: prompts.AgentSystem,
		Messages:     history,
		Tools:        tools,
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: converse: %w", err)
	}
	return resp, nil
}

// EnhanceTone rewrites a reply in a friendlier tone without changing its
// facts. Returns the original text unchanged when the model fails or
// produces nothing, so enhancement can never lose a reply.
func (o *Oracle) EnhanceTone(ctx context.Context, reply string) string {
	resp, err := o.complete(ctx, "enhance", llm.CompletionRequest{
		SystemPrompt: prompts.FormatResponseEnhancement(reply),
		Messages:     []types.Message{types.UserMessage(reply)},
	})
	if err != nil {
		o.logger.Warn("tone enhancement failed, keeping original reply", "error", err)
		return reply
	}
	enhanced := strings.TrimSpace(resp.Content)
	if enhanced == "" {
		return reply
	}
	return enhanced
}
