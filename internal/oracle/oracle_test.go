package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/intent"
	"github.com/casamind/casamind/pkg/provider/llm"
	"github.com/casamind/casamind/pkg/provider/llm/mock"
	"github.com/casamind/casamind/pkg/types"
)

func newOracle(m *mock.Provider) *Oracle {
	return New(m, slog.New(slog.DiscardHandler))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	m := &mock.Provider{Responses: []*llm.CompletionResponse{{
		ToolCalls: []types.ToolCall{
			{ID: "1", Name: intent.ToolName, Arguments: `{"intent":"control","user_message":"turn on lamp","device_uuid":"d1"}`},
			{ID: "2", Name: intent.ToolName, Arguments: `{"intent":"scene","user_message":"cozy scene"}`},
		},
	}}}
	o := newOracle(m)

	records, err := o.Classify(context.Background(), "turn on lamp and make it cozy", []devices.Device{{UUID: "d1", Name: "Lamp"}})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Kind != intent.Control || records[1].Kind != intent.Scene {
		t.Errorf("records = %+v", records)
	}
	if len(m.Calls) != 1 || len(m.Calls[0].Req.Tools) != 1 {
		t.Fatalf("expected one call with the classify tool")
	}
}

func TestClassifyNoToolCalls(t *testing.T) {
	t.Parallel()

	m := &mock.Provider{Responses: []*llm.CompletionResponse{{Content: "hi"}}}
	o := newOracle(m)

	_, err := o.Classify(context.Background(), "hello", nil)
	if !errors.Is(err, intent.ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
}

func TestResolveControl(t *testing.T) {
	t.Parallel()

	m := &mock.Provider{Responses: []*llm.CompletionResponse{{
		ToolCalls: []types.ToolCall{
			{ID: "1", Name: "resolve_device_function", Arguments: `{"status":"Success","device_uuid":"d1","code":"switch","value":true}`},
			{ID: "2", Name: "resolve_device_function", Arguments: `{"status":"Failure","device_uuid":"d2","failure_reason":"no matching code"}`},
			{ID: "3", Name: "resolve_device_function", Arguments: `not json`},
		},
	}}}
	o := newOracle(m)

	res, err := o.ResolveControl(context.Background(), []string{"msg"}, []string{"desc"}, "turn on lamp")
	if err != nil {
		t.Fatalf("ResolveControl: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 resolutions, got %d", len(res))
	}
	if res[0].Status != Success || res[0].Code != "switch" || res[0].Value.Raw() != true {
		t.Errorf("resolution 0 = %+v", res[0])
	}
	if res[1].Status != Failure || res[1].FailureReason != "no matching code" {
		t.Errorf("resolution 1 = %+v", res[1])
	}
	if res[2].Status != Failure || res[2].FailureReason == "" {
		t.Errorf("resolution 2 = %+v", res[2])
	}
}

func TestResolveSchedule(t *testing.T) {
	t.Parallel()

	m := &mock.Provider{Responses: []*llm.CompletionResponse{{
		ToolCalls: []types.ToolCall{{
			ID: "1", Name: "resolve_device_schedule",
			Arguments: `{"status":"Success","device_uuid":"d1","code":"switch","value":"true","time":"03:04","days":["Tue","Sun"]}`,
		}},
	}}}
	o := newOracle(m)

	res, err := o.ResolveSchedule(context.Background(), []string{"msg"}, nil)
	if err != nil {
		t.Fatalf("ResolveSchedule: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 resolution, got %d", len(res))
	}
	if res[0].Time != "03:04" || len(res[0].Days) != 2 || res[0].Value.Raw() != true {
		t.Errorf("resolution = %+v", res[0])
	}
}

func TestMatchScene(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    string
		matched bool
	}{
		{name: "matched", args: `{"scene_name":"Movie Night","scene_uuid":"s1"}`, matched: true},
		{name: "null placeholder", args: `{"scene_name":"Disco","scene_uuid":"None"}`, matched: false},
		{name: "missing uuid", args: `{"scene_name":"Disco"}`, matched: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := &mock.Provider{Responses: []*llm.CompletionResponse{{
				ToolCalls: []types.ToolCall{{ID: "1", Name: "match_scene", Arguments: tc.args}},
			}}}
			o := newOracle(m)

			match, err := o.MatchScene(context.Background(), "movie night", nil)
			if err != nil {
				t.Fatalf("MatchScene: %v", err)
			}
			if match.Matched() != tc.matched {
				t.Errorf("Matched() = %v, want %v", match.Matched(), tc.matched)
			}
		})
	}
}

func TestEnhanceTone(t *testing.T) {
	t.Parallel()

	t.Run("rewrites", func(t *testing.T) {
		t.Parallel()
		m := &mock.Provider{Responses: []*llm.CompletionResponse{{Content: "All done! Your lamp is on."}}}
		got := newOracle(m).EnhanceTone(context.Background(), "device d1 switch=true ok")
		if got != "All done! Your lamp is on." {
			t.Errorf("EnhanceTone = %q", got)
		}
	})

	t.Run("keeps original on error", func(t *testing.T) {
		t.Parallel()
		m := &mock.Provider{Err: errors.New("model down")}
		got := newOracle(m).EnhanceTone(context.Background(), "original reply")
		if got != "original reply" {
			t.Errorf("EnhanceTone = %q", got)
		}
	})

	t.Run("keeps original on empty rewrite", func(t *testing.T) {
		t.Parallel()
		m := &mock.Provider{Responses: []*llm.CompletionResponse{{Content: "  "}}}
		got := newOracle(m).EnhanceTone(context.Background(), "original reply")
		if got != "original reply" {
			t.Errorf("EnhanceTone = %q", got)
		}
	})
}

func TestValueDecoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    any
		wantErr bool
	}{
		{name: "bool", payload: `true`, want: true},
		{name: "number", payload: `300`, want: float64(300)},
		{name: "plain string", payload: `"open"`, want: "open"},
		{name: "stringly bool", payload: `"True"`, want: true},
		{name: "stringly number", payload: `"42"`, want: float64(42)},
		{name: "stringly null", payload: `"None"`, want: nil},
		{name: "null", payload: `null`, want: nil},
		{name: "object rejected", payload: `{"a":1}`, wantErr: true},
		{name: "array rejected", payload: `[1,2]`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var v Value
			err := json.Unmarshal([]byte(tc.payload), &v)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if v.Raw() != tc.want {
				t.Errorf("Raw() = %v (%T), want %v", v.Raw(), v.Raw(), tc.want)
			}
		})
	}
}
