package handlers

import (
	"context"
	"strings"

	"github.com/casamind/casamind/pkg/types"
)

// maxToolRounds bounds the chat tool loop so a model that keeps calling
// tools cannot spin forever.
const maxToolRounds = 4

// Chat answers free conversation over the full session history. The model
// may call registered tools; the loop feeds results back until the model
// produces prose or the round budget runs out.
func (h *Handlers) Chat(ctx context.Context, turn *Turn) (string, error) {
	history := FilterHistory(turn.History)

	for round := 0; ; round++ {
		resp, err := h.oracle.Converse(ctx, history, h.tools.Definitions())
		if err != nil {
			return "", err
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}
		if round == maxToolRounds {
			h.logger.Warn("chat tool loop budget exhausted", "rounds", round)
			if resp.Content != "" {
				return resp.Content, nil
			}
			return "I could not finish looking that up. Could you try rephrasing?", nil
		}

		assistant := types.AssistantMessage(resp.Content)
		assistant.ToolCalls = resp.ToolCalls
		history = append(history, assistant)
		for _, call := range resp.ToolCalls {
			h.logger.Debug("chat tool call", "tool", call.Name)
			result := h.tools.Execute(ctx, call)
			history = append(history, types.Message{
				Role:       types.RoleTool,
				Content:    result,
				Name:       call.Name,
				ToolCallID: call.ID,
			})
		}
	}
}

// FilterHistory drops assistant messages that carry tool calls without a
// complete set of answering tool results, keeping the history well-formed
// for providers that reject dangling invocations.
func FilterHistory(history []types.Message) []types.Message {
	var out []types.Message
	for i := 0; i < len(history); i++ {
		msg := history[i]
		if msg.Role != types.RoleAssistant || len(msg.ToolCalls) == 0 {
			out = append(out, msg)
			continue
		}

		wanted := make(map[string]bool, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			wanted[call.ID] = true
		}
		j := i + 1
		answered := 0
		for j < len(history) && history[j].Role == types.RoleTool {
			if wanted[history[j].ToolCallID] {
				answered++
			}
			j++
		}
		if answered == len(msg.ToolCalls) {
			out = append(out, history[i:j]...)
			i = j - 1
			continue
		}
		// Dangling tool calls: drop the assistant message and any partial
		// results.
		i = j - 1
	}
	return out
}

// JoinFragments aggregates handler output into one reply body.
func JoinFragments(fragments []string) string {
	return strings.Join(fragments, "\n")
}
