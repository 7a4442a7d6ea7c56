// Package transport exposes the conversation engine over NATS
// request/reply. Each inbound message is one conversational turn; the
// reply carries the assistant's answer and whether the session is now
// waiting for a confirmation.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/casamind/casamind/internal/config"
	"github.com/casamind/casamind/internal/graph"
)

// turnTimeout bounds one full turn including oracle and backend calls.
const turnTimeout = 2 * time.Minute

// TurnRequest is the inbound message payload. SessionID may be empty on
// the first message of a conversation; the reply then carries the
// generated one.
type TurnRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

// TurnResponse is the reply payload.
type TurnResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Suspended bool   `json:"suspended,omitempty"`
	Question  string `json:"question,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Gateway subscribes to a request subject and drives the engine.
type Gateway struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	engine  *graph.Engine
	subject string
	logger  *slog.Logger
}

// NewGateway connects to the NATS server and subscribes to the configured
// subject. Close releases both.
func NewGateway(cfg config.NATSConfig, engine *graph.Engine, logger *slog.Logger) (*Gateway, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("casamind"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("transport: connect to nats: %w", err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = "casamind.turn"
	}

	g := &Gateway{
		conn:    conn,
		engine:  engine,
		subject: subject,
		logger:  logger.With("component", "transport"),
	}
	g.sub, err = conn.Subscribe(subject, g.handle)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: subscribe %s: %w", subject, err)
	}
	g.logger.Info("nats gateway listening", "url", cfg.URL, "subject", subject)
	return g, nil
}

func (g *Gateway) handle(msg *nats.Msg) {
	var req TurnRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		g.respond(msg, &TurnResponse{Error: "invalid request payload"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	res, err := g.engine.ProcessTurn(ctx, req.SessionID, req.Text)
	if err != nil {
		g.logger.Error("turn failed", "session_id", req.SessionID, "error", err)
		g.respond(msg, &TurnResponse{SessionID: req.SessionID, Error: err.Error()})
		return
	}
	g.respond(msg, &TurnResponse{
		SessionID: req.SessionID,
		Reply:     res.Reply,
		Suspended: res.Suspended,
		Question:  res.Question,
	})
}

func (g *Gateway) respond(msg *nats.Msg, resp *TurnResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		g.logger.Error("marshal response", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		g.logger.Error("send response", "error", err)
	}
}

// Close drains the subscription and closes the connection.
func (g *Gateway) Close() error {
	if g.sub != nil {
		if err := g.sub.Drain(); err != nil {
			g.logger.Warn("drain subscription", "error", err)
		}
	}
	g.conn.Close()
	return nil
}
