package policy_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpelletier/agentshift/internal/model"
	"github.com/mpelletier/agentshift/internal/policy"

	_ "github.com/mpelletier/agentshift/internal/policies/bonus"
	_ "github.com/mpelletier/agentshift/internal/policies/exhaustive"
	_ "github.com/mpelletier/agentshift/internal/policies/patience"
)

// Every registered policy, fed arbitrary score sequences, must refuse to
// continue once the iteration count reaches the budget. This holds for the
// raw policies, before the engine-side guard is even applied.
func TestAllPoliciesRespectIterationBudget(t *testing.T) {
	t.Parallel()

	names := []string{"exhaustive", "patience", "threshold_bonus"}
	for _, name := range policy.Names() {
		require.Contains(t, names, name)
	}

	rng := rand.New(rand.NewSource(42))

	for _, name := range names {
		for trial := 0; trial < 25; trial++ {
			t.Run(fmt.Sprintf("%s/trial_%d", name, trial), func(t *testing.T) {
				p, err := policy.New(name, policy.Params{
					Patience:    1 + rng.Intn(4),
					BonusRounds: 1 + rng.Intn(4),
				})
				require.NoError(t, err)

				budget := model.Budget{
					Threshold:     rng.Float64(),
					MaxIterations: 1 + rng.Intn(8),
				}
				p.Initialize(budget)

				var history model.History
				for iteration := 1; iteration <= budget.MaxIterations+3; iteration++ {
					rate := rng.Float64()
					history = history.Append("v", rate, nil)
					decision := p.ShouldContinue(iteration, rate, budget, history)
					if iteration >= budget.MaxIterations {
						require.False(t, decision.ShouldContinue,
							"%s continued at iteration %d with budget %d", name, iteration, budget.MaxIterations)
					}
				}
			})
		}
	}
}

// Every registered policy reports the best historical attempt, not the last.
func TestAllPoliciesReportBestHistoricalAttempt(t *testing.T) {
	t.Parallel()

	history := model.History{}.
		Append("first", 0.5, nil).
		Append("second", 0.9, nil).
		Append("third", 0.6, nil)

	for _, name := range []string{"exhaustive", "patience", "threshold_bonus"} {
		p, err := policy.New(name, policy.Params{Patience: 2, BonusRounds: 2})
		require.NoError(t, err)
		p.Initialize(model.Budget{Threshold: 0.8, MaxIterations: 5})

		best, ok := p.BestResult(history)
		require.True(t, ok, name)
		require.Equal(t, 2, best.Iteration, name)
		require.InDelta(t, 0.9, best.SuccessRate, 1e-9, name)
		require.Equal(t, "second", best.Instructions, name)
	}
}

func TestFreshInstancesPerRun(t *testing.T) {
	t.Parallel()

	a, err := policy.New("patience", policy.Params{Patience: 2})
	require.NoError(t, err)
	b, err := policy.New("patience", policy.Params{Patience: 2})
	require.NoError(t, err)
	require.NotSame(t, a, b)
}
