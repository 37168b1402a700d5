package reviser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpelletier/agentshift/internal/llm"
	"github.com/mpelletier/agentshift/internal/model"
)

func failingCase(id, category, input, ref, candidate string, score float64, tags ...string) FailingCase {
	return FailingCase{
		Ref: model.ReferenceCase{
			ID:              id,
			Input:           input,
			ReferenceOutput: ref,
			Category:        category,
		},
		Verdict: model.CaseVerdict{
			CaseID:      id,
			Score:       score,
			Passed:      false,
			Feedback:    "missed the refund policy",
			FailureTags: tags,
		},
		CandidateOutput: candidate,
	}
}

func TestAbstractGroupsByCategory(t *testing.T) {
	t.Parallel()

	failures := []FailingCase{
		failingCase("a", "billing", "in-a", "ref-a", "cand-a", 0.3, "missing_detail"),
		failingCase("b", "billing", "in-b", "ref-b", "cand-b", 0.5, "wrong_tone"),
		failingCase("c", "", "in-c", "ref-c", "cand-c", 0.4, "missing_detail"),
	}

	patterns := Abstract(failures)
	require.Len(t, patterns, 2)

	require.Equal(t, "billing", patterns[0].Category)
	require.Equal(t, 2, patterns[0].Count)
	require.Equal(t, []string{"missing_detail", "wrong_tone"}, patterns[0].Tags)

	require.Equal(t, "general", patterns[1].Category)
	require.Equal(t, 1, patterns[1].Count)
}

func TestAbstractContainsNoVerbatimCaseText(t *testing.T) {
	t.Parallel()

	failures := []FailingCase{
		failingCase("a", "billing", "SECRET-INPUT-TEXT", "SECRET-REFERENCE-TEXT", "SECRET-CANDIDATE-TEXT", 0.2),
	}

	rendered := Describe(Abstract(failures))
	require.NotContains(t, rendered, "SECRET-INPUT-TEXT")
	require.NotContains(t, rendered, "SECRET-REFERENCE-TEXT")
	require.NotContains(t, rendered, "SECRET-CANDIDATE-TEXT")
	require.Contains(t, rendered, "billing")
}

func TestAbstractLengthDirection(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 400)
	short := strings.Repeat("x", 100)

	tooShort := Abstract([]FailingCase{failingCase("a", "c", "in", long, short, 0.2)})
	require.Equal(t, "too_short", tooShort[0].LengthDirection)

	tooLong := Abstract([]FailingCase{failingCase("a", "c", "in", short, long, 0.2)})
	require.Equal(t, "too_long", tooLong[0].LengthDirection)

	comparable := Abstract([]FailingCase{failingCase("a", "c", "in", long, long, 0.2)})
	require.Equal(t, "comparable", comparable[0].LengthDirection)
}

func TestAbstractPicksWorstFeedback(t *testing.T) {
	t.Parallel()

	a := failingCase("a", "c", "in", "ref", "cand", 0.6)
	a.Verdict.Feedback = "minor tone issue"
	b := failingCase("b", "c", "in", "ref", "cand", 0.1)
	b.Verdict.Feedback = "completely wrong answer"

	patterns := Abstract([]FailingCase{a, b})
	require.Equal(t, "completely wrong answer", patterns[0].Feedback)
}

func TestLLMReviserAbstractMode(t *testing.T) {
	t.Parallel()

	var captured string
	provider := llm.ProviderFunc(func(ctx context.Context, system, user string) (llm.Response, error) {
		captured = user
		return llm.Response{Text: "revised instructions"}, nil
	})

	rev := New(provider, Options{AbstractFailures: true})
	out, err := rev.Revise(context.Background(), "original instructions", []FailingCase{
		failingCase("a", "billing", "VERBATIM-INPUT", "VERBATIM-REF", "VERBATIM-CAND", 0.3, "missing_detail"),
	})
	require.NoError(t, err)
	require.Equal(t, "revised instructions", out)

	require.Contains(t, captured, "original instructions")
	require.Contains(t, captured, "FAILURE PATTERNS")
	require.NotContains(t, captured, "VERBATIM-INPUT")
	require.NotContains(t, captured, "VERBATIM-REF")
	require.NotContains(t, captured, "VERBATIM-CAND")
}

func TestLLMReviserVerbatimMode(t *testing.T) {
	t.Parallel()

	var captured string
	provider := llm.ProviderFunc(func(ctx context.Context, system, user string) (llm.Response, error) {
		captured = user
		return llm.Response{Text: "revised"}, nil
	})

	rev := New(provider, Options{AbstractFailures: false})
	_, err := rev.Revise(context.Background(), "original", []FailingCase{
		failingCase("a", "billing", "VERBATIM-INPUT", "VERBATIM-REF", "VERBATIM-CAND", 0.3),
	})
	require.NoError(t, err)

	require.Contains(t, captured, "VERBATIM-INPUT")
	require.Contains(t, captured, "VERBATIM-REF")
	require.Contains(t, captured, "VERBATIM-CAND")
}

func TestLLMReviserVerbatimModeBoundsCases(t *testing.T) {
	t.Parallel()

	var captured string
	provider := llm.ProviderFunc(func(ctx context.Context, system, user string) (llm.Response, error) {
		captured = user
		return llm.Response{Text: "revised"}, nil
	})

	var failures []FailingCase
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		failures = append(failures, failingCase(id, "c", "in-"+id, "ref", "cand", 0.3))
	}

	rev := New(provider, Options{AbstractFailures: false, MaxVerbatimCases: 2})
	_, err := rev.Revise(context.Background(), "original", failures)
	require.NoError(t, err)

	require.Contains(t, captured, "case a")
	require.Contains(t, captured, "case b")
	require.NotContains(t, captured, "case c")
}

func TestLLMReviserRejectsEmptyReply(t *testing.T) {
	t.Parallel()

	rev := New(llm.NewScriptedProvider("   \n"), Options{AbstractFailures: true})
	_, err := rev.Revise(context.Background(), "original", []FailingCase{
		failingCase("a", "c", "in", "ref", "cand", 0.3),
	})
	require.Error(t, err)
}

func TestLLMReviserRejectsNoFailures(t *testing.T) {
	t.Parallel()

	rev := New(llm.NewScriptedProvider("revised"), Options{AbstractFailures: true})
	_, err := rev.Revise(context.Background(), "original", nil)
	require.Error(t, err)
}

func TestLLMReviserPropagatesProviderError(t *testing.T) {
	t.Parallel()

	provider := llm.ProviderFunc(func(ctx context.Context, system, user string) (llm.Response, error) {
		return llm.Response{}, errors.New("model offline")
	})

	rev := New(provider, Options{AbstractFailures: true})
	_, err := rev.Revise(context.Background(), "original", []FailingCase{
		failingCase("a", "c", "in", "ref", "cand", 0.3),
	})
	require.Error(t, err)
}
