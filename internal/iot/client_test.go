package iot

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/casamind/casamind/internal/config"
	"github.com/casamind/casamind/internal/devices"
)

func testSpace() config.SpaceConfig {
	return config.SpaceConfig{
		ProjectUUID:   "proj",
		CommunityUUID: "comm",
		SpaceUUID:     "space",
		UserUUID:      "user",
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.BackendConfig{
		BaseURL:       srv.URL,
		Email:         "user@example.com",
		Password:      "secret",
		Timeout:       5 * time.Second,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	}
	return New(cfg, testSpace(), slog.New(slog.DiscardHandler)), srv
}

func loginHandler(t *testing.T, token string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode login body: %v", err)
		}
		if body.Email != "user@example.com" || body.Password != "secret" {
			t.Errorf("unexpected credentials: %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"data":       map[string]string{"accessToken": token},
		})
	}
}

func TestListDevices(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /authentication/user/login", loginHandler(t, "tok-1"))
	mux.HandleFunc("GET /projects/proj/communities/comm/spaces/space/devices", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"data": []map[string]any{
				{
					"uuid":         "dev-1",
					"name":         "Kitchen Light",
					"productType":  "1G",
					"categoryName": "Lighting",
					"subspace":     map[string]string{"uuid": "sub-1", "subspaceName": "Kitchen"},
					"deviceTag":    map[string]string{"name": "ceiling"},
				},
				{
					"uuid":        "dev-2",
					"name":        "Curtain",
					"productType": "CUR",
				},
			},
		})
	})

	client, _ := newTestClient(t, mux)
	devs, err := client.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devs) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devs))
	}
	want := devices.Subspace{UUID: "sub-1", Name: "Kitchen"}
	if devs[0].Subspace != want || devs[0].Tag != "ceiling" {
		t.Errorf("device 0 = %+v", devs[0])
	}
	if (devs[1].Subspace != devices.Subspace{}) || devs[1].Tag != "" {
		t.Errorf("device 1 = %+v", devs[1])
	}
}

func TestReloginOnUnauthorized(t *testing.T) {
	t.Parallel()

	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /authentication/user/login", func(w http.ResponseWriter, r *http.Request) {
		logins++
		token := "stale"
		if logins > 1 {
			token = "fresh"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"data":       map[string]string{"accessToken": token},
		})
	})
	mux.HandleFunc("POST /devices/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"statusCode": 200, "data": map[string]any{}})
	})

	client, _ := newTestClient(t, mux)
	if err := client.BatchControl(context.Background(), []string{"dev-1"}, "switch", true); err != nil {
		t.Fatalf("BatchControl: %v", err)
	}
	if logins != 2 {
		t.Errorf("expected 2 logins, got %d", logins)
	}
}

func TestBatchControlBody(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /authentication/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("POST /devices/batch", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["operationType"] != "COMMAND" || body["code"] != "switch" || body["value"] != true {
			t.Errorf("unexpected body: %s", raw)
		}
		json.NewEncoder(w).Encode(map[string]any{"statusCode": 200, "data": map[string]any{}})
	})

	client, _ := newTestClient(t, mux)
	if err := client.BatchControl(context.Background(), []string{"dev-1", "dev-2"}, "switch", true); err != nil {
		t.Fatalf("BatchControl: %v", err)
	}
}

func TestAddScheduleBody(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /authentication/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("POST /schedule/dev-1", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Category string   `json:"category"`
			Time     string   `json:"time"`
			Days     []string `json:"days"`
			Function struct {
				Code  string `json:"code"`
				Value any    `json:"value"`
			} `json:"function"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Time != "03:04" || body.Function.Code != "switch" || len(body.Days) != 2 {
			t.Errorf("unexpected body: %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"statusCode": 201, "data": map[string]any{}})
	})

	client, _ := newTestClient(t, mux)
	err := client.AddSchedule(context.Background(), "dev-1", "category_name", "03:04", "switch", true, []string{"Tue", "Sun"})
	if err != nil {
		t.Fatalf("AddSchedule: %v", err)
	}
}

func TestDeviceStatus(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /authentication/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("GET /devices/dev-1/functions/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"data": map[string]any{
				"status": []map[string]any{
					{"code": "switch", "value": true},
					{"code": "countdown", "value": 300},
				},
			},
		})
	})

	client, _ := newTestClient(t, mux)
	st, err := client.DeviceStatus(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("DeviceStatus: %v", err)
	}
	if st.Readings["switch"] != true {
		t.Errorf("readings = %v", st.Readings)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /authentication/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("POST /scene/tap-to-run/s1/trigger", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client, _ := newTestClient(t, mux)
	if err := client.TriggerScene(context.Background(), "s1"); err == nil {
		t.Fatal("expected error")
	}
}
