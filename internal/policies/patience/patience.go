// Package patience implements an early-stopping rule: quit once a number of
// consecutive iterations fail to improve on the best rate seen so far.
package patience

import (
	"fmt"

	"github.com/mpelletier/agentshift/internal/model"
	"github.com/mpelletier/agentshift/internal/policy"
	agentshifterrors "github.com/mpelletier/agentshift/pkg/errors"
)

const policyName = "patience"

// DefaultPatience is used when no patience value is configured.
const DefaultPatience = 3

// DefaultMinImprovement is the smallest success-rate gain that resets the
// countdown when none is configured.
const DefaultMinImprovement = 0.01

type patiencePolicy struct {
	patience       int
	minImprovement float64

	bestSoFar float64
	remaining int
}

var _ policy.Policy = (*patiencePolicy)(nil)

// New creates a patience policy. patience must be at least 1; a
// minImprovement of 0 selects the default.
func New(patience int, minImprovement float64) (policy.Policy, error) {
	if patience < 1 {
		return nil, agentshifterrors.NewPolicyError(policyName, fmt.Errorf("patience must be at least 1, got %d", patience))
	}
	if minImprovement == 0 {
		minImprovement = DefaultMinImprovement
	}
	if minImprovement < 0 || minImprovement > 1 {
		return nil, agentshifterrors.NewPolicyError(policyName, fmt.Errorf("min improvement must be in [0,1], got %g", minImprovement))
	}
	return &patiencePolicy{patience: patience, minImprovement: minImprovement}, nil
}

func init() {
	if err := policy.Register(policyName, func(params policy.Params) (policy.Policy, error) {
		patience := params.Patience
		if patience == 0 {
			patience = DefaultPatience
		}
		return New(patience, params.MinImprovement)
	}); err != nil {
		panic(err)
	}
}

func (p *patiencePolicy) Name() string { return policyName }

func (p *patiencePolicy) Initialize(model.Budget) {
	// -1 makes the first iteration always count as an improvement.
	p.bestSoFar = -1
	p.remaining = p.patience
}

func (p *patiencePolicy) ShouldContinue(iteration int, successRate float64, budget model.Budget, history model.History) model.Decision {
	if successRate-p.bestSoFar >= p.minImprovement {
		p.bestSoFar = successRate
		p.remaining = p.patience
	} else {
		p.remaining--
	}

	if iteration >= budget.MaxIterations {
		return model.Stop(fmt.Sprintf("iteration budget of %d spent", budget.MaxIterations))
	}
	if p.remaining <= 0 {
		return model.Stop(fmt.Sprintf("no improvement of at least %g for %d iterations", p.minImprovement, p.patience))
	}
	return model.Continue(fmt.Sprintf("patience remaining: %d", p.remaining))
}

func (p *patiencePolicy) BestResult(history model.History) (model.BestAttempt, bool) {
	return history.Best()
}
