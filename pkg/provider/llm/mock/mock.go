// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify that graph nodes send correct
// CompletionRequests and to feed controlled responses without a live LLM
// backend. Set Responses to script a sequence of replies; set Err to inject
// a failure. All fields are safe to set before calling any method.
//
// Example:
//
//	p := &mock.Provider{
//	    Responses: []*llm.CompletionResponse{{Content: "Hello!"}},
//	}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/casamind/casamind/pkg/provider/llm"
	"github.com/casamind/casamind/pkg/types"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
//
// Each call to Complete consumes the next entry of Responses; once the
// scripted responses run out the last entry is repeated. A nil/empty
// Responses slice returns an empty response. Err, if set, is returned by
// every call instead.
type Provider struct {
	mu sync.Mutex

	// Responses is the scripted sequence of completion responses.
	Responses []*llm.CompletionResponse

	// Err, if non-nil, is returned as the error from every Complete call.
	Err error

	// ErrAfter, when > 0, makes Complete succeed for the first ErrAfter
	// calls and return Err from then on. Only consulted when Err is set.
	ErrAfter int

	// ModelCapabilities is returned by Capabilities.
	ModelCapabilities types.ModelCapabilities

	// Calls records every invocation of Complete in order.
	Calls []CompleteCall

	next int
}

// Complete records the call and returns the next scripted response.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, CompleteCall{Ctx: ctx, Req: req})

	if p.Err != nil && len(p.Calls) > p.ErrAfter {
		return nil, p.Err
	}
	if len(p.Responses) == 0 {
		return &llm.CompletionResponse{}, nil
	}
	resp := p.Responses[min(p.next, len(p.Responses)-1)]
	p.next++
	return resp, nil
}

// Capabilities records nothing and returns ModelCapabilities.
func (p *Provider) Capabilities() types.ModelCapabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ModelCapabilities
}

// Reset clears all recorded calls and rewinds the response script.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
	p.next = 0
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)
