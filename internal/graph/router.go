// Package graph is the conversation engine: it classifies an utterance
// into intent records, routes each record to its handler node, aggregates
// the handler outputs into one reply, and manages the suspend/resume
// confirmation protocol for high-risk actions.
package graph

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/casamind/casamind/internal/config"
	"github.com/casamind/casamind/internal/intent"
)

// Node identifies a handler node of the conversation graph.
type Node string

const (
	NodeClarify  Node = "request_clarification"
	NodeConfirm  Node = "request_confirmation"
	NodeControl  Node = "handle_control"
	NodeQuery    Node = "handle_query"
	NodeSchedule Node = "handle_schedule"
	NodeScene    Node = "handle_scene"
	NodeChat     Node = "chat"
)

// ErrUnknownIntent is returned by Route under the reject policy when a
// record carries a kind outside the taxonomy.
var ErrUnknownIntent = errors.New("graph: unknown intent kind")

// nodeFor maps a valid intent kind to its handler node.
func nodeFor(kind intent.Kind) (Node, bool) {
	switch kind {
	case intent.Ambiguous:
		return NodeClarify, true
	case intent.Control:
		return NodeControl, true
	case intent.Query:
		return NodeQuery, true
	case intent.Schedule:
		return NodeSchedule, true
	case intent.Scene:
		return NodeScene, true
	case intent.HighRisk:
		return NodeConfirm, true
	case intent.Conversation:
		return NodeChat, true
	}
	return "", false
}

// Route maps a batch of intent records to the ordered set of handler nodes
// to run. Each node appears once, positioned by the first record that
// activates it, so handler output order follows classifier emission order.
//
// Records with kinds outside the taxonomy follow the configured policy:
// chat treats them as conversation (with a warning), reject fails the turn.
// An empty batch routes nowhere; the caller ends the turn silently.
func Route(records []intent.Record, policy config.UnknownIntentPolicy, logger *slog.Logger) ([]Node, map[Node][]intent.Record, error) {
	var order []Node
	byNode := make(map[Node][]intent.Record)

	add := func(node Node, rec intent.Record) {
		if _, seen := byNode[node]; !seen {
			order = append(order, node)
		}
		byNode[node] = append(byNode[node], rec)
	}

	for _, rec := range records {
		node, ok := nodeFor(rec.Kind)
		if !ok {
			switch policy {
			case config.UnknownIntentReject:
				return nil, nil, fmt.Errorf("%w: %q", ErrUnknownIntent, rec.Kind)
			default:
				logger.Warn("unknown intent kind, treating as conversation", "kind", rec.Kind)
				node = NodeChat
			}
		}
		add(node, rec)
	}
	return order, byNode, nil
}
