package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/casamind/casamind/internal/config"
	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/handlers"
	"github.com/casamind/casamind/internal/intent"
	"github.com/casamind/casamind/internal/observe"
	"github.com/casamind/casamind/internal/oracle"
	"github.com/casamind/casamind/internal/prompts"
	"github.com/casamind/casamind/internal/session"
	"github.com/casamind/casamind/pkg/types"
)

// ErrNotSuspended is returned by Resume when the session has no pending
// confirmation.
var ErrNotSuspended = errors.New("graph: session is not awaiting confirmation")

// budgetExhausted is the terminal reply when the confirmation loop runs
// out of retries.
const budgetExhausted = "Confirmation attempts exhausted; the action was cancelled."

// Result is the outcome of one processed turn.
type Result struct {
	// Reply is the user-facing text. Empty on the two silent ends:
	// cancellation and zero-intent classification.
	Reply string

	// Suspended reports that the turn paused for confirmation; the next
	// input for this session resolves it.
	Suspended bool

	// Question is the pending confirmation question when Suspended.
	Question string
}

// Engine drives the conversation graph: one instance serves all sessions.
type Engine struct {
	oracle    *oracle.Oracle
	handlers  *handlers.Handlers
	directory *devices.Cache
	sessions  session.Store
	locks     *session.KeyedMutex
	metrics   *observe.Metrics
	logger    *slog.Logger
	maxSteps  int
	policy    config.UnknownIntentPolicy
}

// EngineConfig wires an Engine.
type EngineConfig struct {
	Oracle    *oracle.Oracle
	Handlers  *handlers.Handlers
	Directory *devices.Cache
	Sessions  session.Store
	Metrics   *observe.Metrics
	Logger    *slog.Logger
	Graph     config.GraphConfig
}

// NewEngine builds the conversation engine.
func NewEngine(cfg EngineConfig) *Engine {
	maxSteps := cfg.Graph.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 7
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Engine{
		oracle:    cfg.Oracle,
		handlers:  cfg.Handlers,
		directory: cfg.Directory,
		sessions:  cfg.Sessions,
		locks:     session.NewKeyedMutex(),
		metrics:   metrics,
		logger:    cfg.Logger.With("component", "graph"),
		maxSteps:  maxSteps,
		policy:    cfg.Graph.UnknownIntent,
	}
}

// ProcessTurn runs one conversational turn. If the session is currently
// suspended the utterance is interpreted as the confirmation reply.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, utterance string) (*Result, error) {
	unlock := e.locks.Lock(sessionID)
	defer unlock()

	start := time.Now()
	defer func() {
		e.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	}()

	sess, err := e.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Suspended() {
		return e.resumeLocked(ctx, sess, utterance)
	}
	return e.runTurn(ctx, sess, utterance)
}

// Resume resolves a pending confirmation with the user's reply. Returns
// ErrNotSuspended when the session is not waiting for one.
func (e *Engine) Resume(ctx context.Context, sessionID, reply string) (*Result, error) {
	unlock := e.locks.Lock(sessionID)
	defer unlock()

	sess, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNotSuspended
		}
		return nil, err
	}
	if !sess.Suspended() {
		return nil, ErrNotSuspended
	}
	return e.resumeLocked(ctx, sess, reply)
}

func (e *Engine) loadOrCreate(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := e.sessions.Load(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		e.metrics.SessionsStarted.Add(ctx, 1)
		return session.NewSession(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("graph: load session: %w", err)
	}
	return sess, nil
}

// runTurn is the classify-route-handle-enhance pipeline for a fresh
// utterance.
func (e *Engine) runTurn(ctx context.Context, sess *session.Session, utterance string) (*Result, error) {
	sess.History = append(sess.History, types.UserMessage(utterance))

	dir, err := e.directory.ListDevices(ctx)
	if err != nil || len(dir) == 0 {
		// Hard stop: no classification is attempted without a directory.
		e.logger.Error("device directory unavailable", "error", err)
		return e.finish(ctx, sess, prompts.DirectoryFetchFailed)
	}

	records, err := e.oracle.Classify(ctx, utterance, dir)
	if errors.Is(err, intent.ErrNoRecords) {
		// Silent end: no routable intent, no reply.
		if err := e.save(ctx, sess); err != nil {
			return nil, err
		}
		return &Result{}, nil
	}
	if err != nil {
		e.metrics.OracleErrors.Add(ctx, 1)
		return nil, err
	}
	for _, rec := range records {
		e.metrics.RecordIntent(ctx, string(rec.Kind))
	}

	order, byNode, err := Route(records, e.policy, e.logger)
	if err != nil {
		return nil, err
	}

	turn := &handlers.Turn{Utterance: utterance, Directory: dir, History: sess.History}

	var fragments []string
	var chatReply string
	suspend := false
	// The fan-out is one superstep: every routed node runs. The step
	// budget bounds the confirmation self-loop, the only cycle in the
	// graph, via the retry counter in the suspension.
	for _, node := range order {
		switch node {
		case NodeConfirm:
			// Confirmation suspends; deferred until the other branches
			// have produced their output.
			suspend = true
			continue
		case NodeClarify:
			fragments = append(fragments, e.handlers.Clarify(turn, byNode[node])...)
		case NodeControl:
			fragments = append(fragments, e.handlers.Control(ctx, turn, byNode[node])...)
		case NodeQuery:
			fragments = append(fragments, e.handlers.Query(ctx, turn, byNode[node])...)
		case NodeSchedule:
			fragments = append(fragments, e.handlers.Schedule(ctx, turn, byNode[node])...)
		case NodeScene:
			fragments = append(fragments, e.handlers.Scene(ctx, turn, byNode[node])...)
		case NodeChat:
			chatReply, err = e.handlers.Chat(ctx, turn)
			if err != nil {
				e.metrics.OracleErrors.Add(ctx, 1)
				fragments = append(fragments, fmt.Sprintf("Failed: %v", err))
			}
		}
		e.metrics.RecordHandlerRun(ctx, string(node), "ok")
	}

	// Enhancement covers every user-visible branch except chat, whose
	// oracle already writes user-facing prose.
	body := handlers.JoinFragments(fragments)
	if body != "" {
		body = e.oracle.EnhanceTone(ctx, body)
	}
	reply := joinParts(body, chatReply)

	if suspend {
		susp := newSuspension(byNode[NodeConfirm])
		payload, err := susp.encode()
		if err != nil {
			return nil, err
		}
		reply = joinParts(reply, prompts.HighRiskConfirmation)
		sess.History = append(sess.History, types.AssistantMessage(reply))
		sess.Suspension = payload
		e.metrics.Suspensions.Add(ctx, 1)
		if err := e.save(ctx, sess); err != nil {
			return nil, err
		}
		return &Result{Reply: reply, Suspended: true, Question: susp.Question}, nil
	}

	return e.finish(ctx, sess, reply)
}

// resumeLocked resolves one confirmation exchange. The session lock is
// already held.
func (e *Engine) resumeLocked(ctx context.Context, sess *session.Session, reply string) (*Result, error) {
	susp, err := decodeSuspension(sess.Suspension)
	if err != nil {
		// Corrupt suspension state: drop it rather than wedge the session.
		e.logger.Error("dropping unreadable suspension", "session", sess.ID, "error", err)
		sess.Suspension = nil
		if err := e.save(ctx, sess); err != nil {
			return nil, err
		}
		return &Result{}, nil
	}

	sess.History = append(sess.History, types.UserMessage(reply))
	outcome := ClassifyConfirmation(reply)
	e.metrics.RecordConfirmation(ctx, string(outcome))
	e.logger.Info("confirmation reply", "session", sess.ID, "outcome", outcome)

	switch outcome {
	case Cancelled:
		// Silent end: the action is dropped with no further reply.
		sess.Suspension = nil
		if err := e.save(ctx, sess); err != nil {
			return nil, err
		}
		return &Result{}, nil

	case Unclear:
		susp.Retries++
		if susp.Retries >= e.maxSteps {
			sess.Suspension = nil
			return e.finish(ctx, sess, budgetExhausted)
		}
		payload, err := susp.encode()
		if err != nil {
			return nil, err
		}
		sess.History = append(sess.History, types.AssistantMessage(prompts.ConfirmReprompt))
		sess.Suspension = payload
		if err := e.save(ctx, sess); err != nil {
			return nil, err
		}
		return &Result{Reply: prompts.ConfirmReprompt, Suspended: true, Question: susp.Question}, nil
	}

	// Confirmed: execute the pending records through the control handler.
	sess.Suspension = nil
	dir, err := e.directory.ListDevices(ctx)
	if err != nil || len(dir) == 0 {
		e.logger.Error("device directory unavailable on resume", "error", err)
		return e.finish(ctx, sess, prompts.DirectoryFetchFailed)
	}
	turn := &handlers.Turn{Utterance: susp.ActionSummary, Directory: dir, History: sess.History}
	fragments := e.handlers.Control(ctx, turn, susp.asControl())
	e.metrics.RecordHandlerRun(ctx, string(NodeControl), "ok")

	body := e.oracle.EnhanceTone(ctx, handlers.JoinFragments(fragments))
	return e.finish(ctx, sess, body)
}

// finish appends the reply to the history (when non-empty), persists the
// session and returns the result.
func (e *Engine) finish(ctx context.Context, sess *session.Session, reply string) (*Result, error) {
	if reply != "" {
		sess.History = append(sess.History, types.AssistantMessage(reply))
	}
	if err := e.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Result{Reply: reply}, nil
}

func (e *Engine) save(ctx context.Context, sess *session.Session) error {
	sess.LastActivity = time.Now()
	if err := e.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("graph: save session: %w", err)
	}
	return nil
}

// joinParts concatenates non-empty reply parts with a blank line.
func joinParts(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += p
	}
	return out
}
