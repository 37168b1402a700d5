package policy

import (
	"fmt"

	"github.com/mpelletier/agentshift/internal/model"
)

// guard enforces the one invariant every stopping rule shares: no policy may
// continue a run at or past the iteration budget. The engine only talks to
// policies through Guard, so a misbehaving implementation is stopped
// structurally rather than trusted to stop itself.
type guard struct {
	inner Policy
}

// Guard wraps a policy with the hard budget cutoff.
func Guard(inner Policy) Policy {
	if g, ok := inner.(*guard); ok {
		return g
	}
	return &guard{inner: inner}
}

func (g *guard) Name() string { return g.inner.Name() }

func (g *guard) Initialize(budget model.Budget) { g.inner.Initialize(budget) }

func (g *guard) ShouldContinue(iteration int, successRate float64, budget model.Budget, history model.History) model.Decision {
	if iteration >= budget.MaxIterations {
		return model.Stop(fmt.Sprintf("iteration budget of %d reached", budget.MaxIterations))
	}
	return g.inner.ShouldContinue(iteration, successRate, budget, history)
}

func (g *guard) BestResult(history model.History) (model.BestAttempt, bool) {
	return g.inner.BestResult(history)
}
