package exhaustive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpelletier/agentshift/internal/model"
)

func TestExhaustiveRunsToBudget(t *testing.T) {
	t.Parallel()

	budget := model.Budget{Threshold: 0.75, MaxIterations: 5}
	p := New()
	p.Initialize(budget)

	var history model.History
	rates := []float64{0.25, 0.5, 0.75, 1.0, 0.9}

	for i, rate := range rates {
		history = history.Append("v", rate, nil)
		decision := p.ShouldContinue(i+1, rate, budget, history)
		if i+1 < budget.MaxIterations {
			// A perfect score at iteration 4 must not stop the run early.
			require.True(t, decision.ShouldContinue, "iteration %d", i+1)
		} else {
			require.False(t, decision.ShouldContinue)
		}
	}

	best, ok := p.BestResult(history)
	require.True(t, ok)
	require.Equal(t, 4, best.Iteration)
	require.InDelta(t, 1.0, best.SuccessRate, 1e-9)
}

func TestExhaustiveNeverExceedsBudget(t *testing.T) {
	t.Parallel()

	budget := model.Budget{Threshold: 0.5, MaxIterations: 3}
	p := New()
	p.Initialize(budget)

	history := model.History{}.Append("v", 0.1, nil)
	for iteration := 3; iteration <= 6; iteration++ {
		decision := p.ShouldContinue(iteration, 0.1, budget, history)
		require.False(t, decision.ShouldContinue, "iteration %d", iteration)
	}
}

func TestExhaustiveBestResultEmptyHistory(t *testing.T) {
	t.Parallel()

	p := New()
	_, ok := p.BestResult(nil)
	require.False(t, ok)
}
