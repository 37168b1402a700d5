// Package llm defines the model-client contract the migration engine depends
// on and an HTTP client for OpenAI-compatible chat endpoints. The engine
// treats providers as opaque text-in/text-out functions; cost and latency are
// the provider's concern.
package llm

import "context"

// Response carries the generated text together with the token counts the
// provider reported for the call.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider is implemented by language model clients.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (Response, error)
}

// Agent describes one side of a migration: a display name, the provider that
// executes it, and its current instruction text.
type Agent struct {
	Name         string
	Provider     Provider
	Instructions string
}

// Execute runs the agent's provider with the supplied instructions over one
// input. Instructions are passed explicitly rather than read from the Agent
// so the convergence loop can test candidate revisions without mutating the
// descriptor.
func (a Agent) Execute(ctx context.Context, instructions, input string) (string, error) {
	resp, err := a.Provider.Generate(ctx, instructions, input)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
