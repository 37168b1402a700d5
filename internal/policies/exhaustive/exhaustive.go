// Package exhaustive implements the simplest stopping rule: run every
// iteration the budget allows, then report the best attempt seen.
package exhaustive

import (
	"fmt"

	"github.com/mpelletier/agentshift/internal/model"
	"github.com/mpelletier/agentshift/internal/policy"
)

const policyName = "exhaustive"

type exhaustivePolicy struct{}

var _ policy.Policy = (*exhaustivePolicy)(nil)

// New creates an exhaustive policy.
func New() policy.Policy {
	return &exhaustivePolicy{}
}

func init() {
	if err := policy.Register(policyName, func(policy.Params) (policy.Policy, error) {
		return New(), nil
	}); err != nil {
		panic(err)
	}
}

func (p *exhaustivePolicy) Name() string { return policyName }

func (p *exhaustivePolicy) Initialize(model.Budget) {}

// ShouldContinue keeps going until the budget is spent, regardless of score.
// Even a perfect iteration does not stop the run early: remaining budget is
// spent probing for cheaper instructions that hold the same rate.
func (p *exhaustivePolicy) ShouldContinue(iteration int, successRate float64, budget model.Budget, history model.History) model.Decision {
	if iteration >= budget.MaxIterations {
		return model.Stop(fmt.Sprintf("iteration budget of %d spent", budget.MaxIterations))
	}
	return model.Continue(fmt.Sprintf("iteration %d of %d", iteration, budget.MaxIterations))
}

func (p *exhaustivePolicy) BestResult(history model.History) (model.BestAttempt, bool) {
	return history.Best()
}
