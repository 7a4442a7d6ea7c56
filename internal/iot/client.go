// Package iot is the HTTP client for the smart home backend. It handles
// bearer authentication with automatic re-login and wraps every call with
// retry and circuit breaking.
package iot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/casamind/casamind/internal/config"
	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/observe"
	"github.com/casamind/casamind/internal/resilience"
)

// Client talks to the backend REST API for one configured space.
type Client struct {
	baseURL string
	email   string
	pass    string
	space   config.SpaceConfig
	http    *http.Client
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
	metrics *observe.Metrics

	mu    sync.Mutex
	token string
}

var _ devices.Lister = (*Client)(nil)

// New builds a backend client from configuration. No network calls are
// made until the first request.
func New(cfg config.BackendConfig, space config.SpaceConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		email:   cfg.Email,
		pass:    cfg.Password,
		space:   space,
		http:    &http.Client{Timeout: cfg.Timeout},
		retry: resilience.RetryConfig{
			Attempts: cfg.RetryAttempts,
			Delay:    cfg.RetryDelay,
		},
		breaker: resilience.NewCircuitBreaker(resilience.BreakerConfig{Name: "iot-backend"}),
		logger:  logger.With("component", "iot"),
		metrics: observe.DefaultMetrics(),
	}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// login authenticates and stores the bearer token.
func (c *Client) login(ctx context.Context) error {
	body := map[string]string{"email": c.email, "password": c.pass}
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/authentication/user/login", body, &env, false); err != nil {
		return fmt.Errorf("iot: login: %w", err)
	}
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("iot: login response: %w", err)
	}
	if data.AccessToken == "" {
		return fmt.Errorf("iot: login returned no access token")
	}
	c.mu.Lock()
	c.token = data.AccessToken
	c.mu.Unlock()
	c.logger.Info("authenticated with backend", "email", c.email)
	return nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// call runs an authenticated request with retry and circuit breaking.
// A 401 triggers one re-login before the request is retried. The op name
// labels the latency metric so device uuids stay out of the attribute set.
func (c *Client) call(ctx context.Context, op, method, path string, body any, env *envelope) error {
	start := time.Now()
	defer func() {
		c.metrics.RecordBackendCall(ctx, op, time.Since(start).Seconds())
	}()
	return c.breaker.Execute(func() error {
		return resilience.Retry(ctx, c.retry, func() error {
			if c.currentToken() == "" {
				if err := c.login(ctx); err != nil {
					return err
				}
			}
			err := c.do(ctx, method, path, body, env, true)
			if isUnauthorized(err) {
				c.logger.Warn("token rejected, re-authenticating")
				c.mu.Lock()
				c.token = ""
				c.mu.Unlock()
				if err := c.login(ctx); err != nil {
					return err
				}
				return c.do(ctx, method, path, body, env, true)
			}
			return err
		})
	})
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.code, e.body)
}

func isUnauthorized(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusUnauthorized
}

func (c *Client) do(ctx context.Context, method, path string, body any, out *envelope, auth bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.currentToken())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("backend call failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	c.logger.Debug("backend call",
		"method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) spacePath(suffix string) string {
	return fmt.Sprintf("/projects/%s/communities/%s/spaces/%s%s",
		url.PathEscape(c.space.ProjectUUID),
		url.PathEscape(c.space.CommunityUUID),
		url.PathEscape(c.space.SpaceUUID),
		suffix)
}

// ListDevices fetches the device directory of the configured space.
func (c *Client) ListDevices(ctx context.Context) ([]devices.Device, error) {
	var env envelope
	if err := c.call(ctx, "list_devices", http.MethodGet, c.spacePath("/devices"), nil, &env); err != nil {
		return nil, fmt.Errorf("iot: list devices: %w", err)
	}
	var rows []struct {
		UUID         string `json:"uuid"`
		Name         string `json:"name"`
		ProductType  string `json:"productType"`
		CategoryName string `json:"categoryName"`
		Subspace     *struct {
			UUID         string `json:"uuid"`
			SubspaceName string `json:"subspaceName"`
		} `json:"subspace"`
		DeviceTag *struct {
			Name string `json:"name"`
		} `json:"deviceTag"`
	}
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("iot: decode devices: %w", err)
	}
	out := make([]devices.Device, 0, len(rows))
	for _, row := range rows {
		d := devices.Device{
			UUID:         row.UUID,
			Name:         row.Name,
			ProductType:  row.ProductType,
			CategoryName: row.CategoryName,
		}
		if row.Subspace != nil {
			d.Subspace = devices.Subspace{UUID: row.Subspace.UUID, Name: row.Subspace.SubspaceName}
		}
		if row.DeviceTag != nil {
			d.Tag = row.DeviceTag.Name
		}
		out = append(out, d)
	}
	c.logger.Info("fetched device directory", "count", len(out))
	return out, nil
}

// ListScenes fetches the tap-to-run scenes of the configured space.
func (c *Client) ListScenes(ctx context.Context) ([]devices.Scene, error) {
	var env envelope
	if err := c.call(ctx, "list_scenes", http.MethodGet, c.spacePath("/scenes?showInHomePage=true"), nil, &env); err != nil {
		return nil, fmt.Errorf("iot: list scenes: %w", err)
	}
	var rows []struct {
		UUID string `json:"uuid"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("iot: decode scenes: %w", err)
	}
	out := make([]devices.Scene, 0, len(rows))
	for _, row := range rows {
		out = append(out, devices.Scene{UUID: row.UUID, Name: row.Name})
	}
	return out, nil
}

// DeviceFunctions fetches the controllable functions of a device.
func (c *Client) DeviceFunctions(ctx context.Context, deviceUUID string) ([]devices.Function, error) {
	var env envelope
	path := "/devices/" + url.PathEscape(deviceUUID) + "/functions"
	if err := c.call(ctx, "device_functions", http.MethodGet, path, nil, &env); err != nil {
		return nil, fmt.Errorf("iot: device functions %s: %w", deviceUUID, err)
	}
	var data struct {
		Functions []struct {
			Code   string `json:"code"`
			Values any    `json:"values"`
		} `json:"functions"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("iot: decode functions: %w", err)
	}
	out := make([]devices.Function, 0, len(data.Functions))
	for _, fn := range data.Functions {
		out = append(out, devices.Function{Code: fn.Code, Values: fn.Values})
	}
	return out, nil
}

// DeviceStatus fetches a device's current function readings.
func (c *Client) DeviceStatus(ctx context.Context, deviceUUID string) (devices.Status, error) {
	var env envelope
	path := "/devices/" + url.PathEscape(deviceUUID) + "/functions/status"
	if err := c.call(ctx, "device_status", http.MethodGet, path, nil, &env); err != nil {
		return devices.Status{}, fmt.Errorf("iot: device status %s: %w", deviceUUID, err)
	}
	var data struct {
		Status []struct {
			Code  string `json:"code"`
			Value any    `json:"value"`
		} `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return devices.Status{}, fmt.Errorf("iot: decode status: %w", err)
	}
	st := devices.Status{DeviceUUID: deviceUUID, Readings: make(map[string]any, len(data.Status))}
	for _, s := range data.Status {
		st.Readings[s.Code] = s.Value
	}
	return st, nil
}

// BatchControl sends one control command to a set of devices.
func (c *Client) BatchControl(ctx context.Context, deviceUUIDs []string, code string, value any) error {
	body := map[string]any{
		"operationType": "COMMAND",
		"devicesUuid":   deviceUUIDs,
		"code":          code,
		"value":         value,
	}
	if err := c.call(ctx, "batch_control", http.MethodPost, "/devices/batch", body, &envelope{}); err != nil {
		return fmt.Errorf("iot: batch control: %w", err)
	}
	c.logger.Info("batch control sent", "devices", len(deviceUUIDs), "code", code, "value", value)
	return nil
}

// AddSchedule registers a scheduled function on a device.
func (c *Client) AddSchedule(ctx context.Context, deviceUUID, category, timeOfDay, code string, value any, days []string) error {
	body := map[string]any{
		"category": category,
		"time":     timeOfDay,
		"function": map[string]any{"code": code, "value": value},
		"days":     days,
	}
	path := "/schedule/" + url.PathEscape(deviceUUID)
	if err := c.call(ctx, "add_schedule", http.MethodPost, path, body, &envelope{}); err != nil {
		return fmt.Errorf("iot: add schedule %s: %w", deviceUUID, err)
	}
	c.logger.Info("schedule added", "device", deviceUUID, "time", timeOfDay, "days", days, "code", code)
	return nil
}

// TriggerScene activates a tap-to-run scene.
func (c *Client) TriggerScene(ctx context.Context, sceneUUID string) error {
	path := "/scene/tap-to-run/" + url.PathEscape(sceneUUID) + "/trigger"
	if err := c.call(ctx, "trigger_scene", http.MethodPost, path, nil, &envelope{}); err != nil {
		return fmt.Errorf("iot: trigger scene %s: %w", sceneUUID, err)
	}
	c.logger.Info("scene triggered", "scene", sceneUUID)
	return nil
}
