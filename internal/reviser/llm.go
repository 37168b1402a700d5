package reviser

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpelletier/agentshift/internal/llm"
)

const reviserSystemPrompt = `You improve the system instructions of an AI agent. You are given the
current instructions and evidence about where the agent falls short of a
stronger reference agent. Rewrite the instructions so the weaker agent
closes those gaps while keeping everything that already works.

Rules:
- Keep the same task and persona; change how it is instructed, not what it does.
- Be concrete: formats, required elements, length guidance.
- Respond with ONLY the full revised instruction text, no commentary.`

// Options configures an LLM-backed reviser.
type Options struct {
	// AbstractFailures selects the anti-overfitting mode: the model sees
	// failure patterns instead of verbatim cases. This is the default; the
	// verbatim mode exists for faithfulness to the original prompt's domain.
	AbstractFailures bool
	// MaxVerbatimCases bounds how many failing cases are quoted in verbatim
	// mode. Zero selects the default of 3.
	MaxVerbatimCases int
}

// LLMReviser asks a model to rewrite instructions.
type LLMReviser struct {
	provider llm.Provider
	opts     Options
}

var _ Reviser = (*LLMReviser)(nil)

// New builds an LLM-backed reviser.
func New(provider llm.Provider, opts Options) *LLMReviser {
	if opts.MaxVerbatimCases <= 0 {
		opts.MaxVerbatimCases = 3
	}
	return &LLMReviser{provider: provider, opts: opts}
}

// Revise produces new instruction text from the failure evidence. An empty
// or unchanged-in-spirit reply is an error: the loop must never silently
// continue with a prompt the reviser did not actually produce.
func (r *LLMReviser) Revise(ctx context.Context, instructions string, failures []FailingCase) (string, error) {
	if len(failures) == 0 {
		return "", fmt.Errorf("revise called with no failing cases")
	}

	user := r.buildPrompt(instructions, failures)

	resp, err := r.provider.Generate(ctx, reviserSystemPrompt, user)
	if err != nil {
		return "", err
	}

	revised := strings.TrimSpace(resp.Text)
	if revised == "" {
		return "", fmt.Errorf("reviser returned empty instructions")
	}
	return revised, nil
}

func (r *LLMReviser) buildPrompt(instructions string, failures []FailingCase) string {
	var b strings.Builder
	b.WriteString("CURRENT INSTRUCTIONS:\n")
	b.WriteString(instructions)
	b.WriteString("\n\n")

	if r.opts.AbstractFailures {
		b.WriteString("FAILURE PATTERNS:\n")
		b.WriteString(Describe(Abstract(failures)))
	} else {
		b.WriteString("FAILING CASES:\n")
		limit := min(len(failures), r.opts.MaxVerbatimCases)
		for _, f := range failures[:limit] {
			fmt.Fprintf(&b, "--- case %s\nINPUT:\n%s\nEXPECTED:\n%s\nGOT:\n%s\nEVALUATOR: %s\n",
				f.Ref.ID, f.Ref.Input, f.Ref.ReferenceOutput, f.CandidateOutput, f.Verdict.Feedback)
		}
	}

	b.WriteString("\nRewrite the instructions to address these failures.")
	return b.String()
}
