package llm

import (
	"context"
	"sync"
)

// ScriptedProvider replays canned responses in order. Once the script is
// exhausted it keeps returning the final entry, which makes fixed-point tests
// easy to write. Safe for concurrent use.
type ScriptedProvider struct {
	mu        sync.Mutex
	responses []Response
	errs      []error
	calls     int
}

var _ Provider = (*ScriptedProvider)(nil)

// NewScriptedProvider builds a provider that returns the given texts in order.
func NewScriptedProvider(texts ...string) *ScriptedProvider {
	p := &ScriptedProvider{}
	for _, text := range texts {
		p.responses = append(p.responses, Response{Text: text})
		p.errs = append(p.errs, nil)
	}
	return p
}

// AddError appends a failing step to the script.
func (p *ScriptedProvider) AddError(err error) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, Response{})
	p.errs = append(p.errs, err)
	return p
}

// Calls reports how many times Generate has been invoked.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Generate returns the next scripted response.
func (p *ScriptedProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.calls
	p.calls++
	if len(p.responses) == 0 {
		return Response{}, nil
	}
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return p.responses[idx], p.errs[idx]
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, systemPrompt, userPrompt string) (Response, error)

// Generate implements Provider.
func (f ProviderFunc) Generate(ctx context.Context, systemPrompt, userPrompt string) (Response, error) {
	return f(ctx, systemPrompt, userPrompt)
}
