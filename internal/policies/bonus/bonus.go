// Package bonus implements a threshold-plus-bonus stopping rule: run until
// the budget threshold is first met, then spend a bounded number of extra
// rounds looking for further improvement. The grant is capped by the
// remaining budget, so bonus rounds can never overrun it.
package bonus

import (
	"fmt"

	"github.com/mpelletier/agentshift/internal/model"
	"github.com/mpelletier/agentshift/internal/policy"
	agentshifterrors "github.com/mpelletier/agentshift/pkg/errors"
)

const policyName = "threshold_bonus"

// DefaultBonusRounds is used when no bonus-round count is configured.
const DefaultBonusRounds = 2

type bonusPolicy struct {
	requested int

	thresholdReachedAt int
	granted            int
}

var _ policy.Policy = (*bonusPolicy)(nil)

// New creates a threshold-plus-bonus policy requesting the given number of
// bonus rounds after the threshold is first met.
func New(bonusRounds int) (policy.Policy, error) {
	if bonusRounds < 0 {
		return nil, agentshifterrors.NewPolicyError(policyName, fmt.Errorf("bonus rounds must not be negative, got %d", bonusRounds))
	}
	return &bonusPolicy{requested: bonusRounds}, nil
}

func init() {
	if err := policy.Register(policyName, func(params policy.Params) (policy.Policy, error) {
		rounds := params.BonusRounds
		if rounds == 0 {
			rounds = DefaultBonusRounds
		}
		return New(rounds)
	}); err != nil {
		panic(err)
	}
}

func (p *bonusPolicy) Name() string { return policyName }

func (p *bonusPolicy) Initialize(model.Budget) {
	p.thresholdReachedAt = 0
	p.granted = 0
}

// ShouldContinue tracks only continuation: the bonus bookkeeping never
// influences which attempt BestResult reports. A bonus round that regresses
// still leaves the earlier, better attempt as the reported one.
func (p *bonusPolicy) ShouldContinue(iteration int, successRate float64, budget model.Budget, history model.History) model.Decision {
	if p.thresholdReachedAt == 0 && successRate >= budget.Threshold {
		p.thresholdReachedAt = iteration
		p.granted = min(p.requested, budget.MaxIterations-iteration)
	}

	if iteration >= budget.MaxIterations {
		return model.Stop(fmt.Sprintf("iteration budget of %d spent", budget.MaxIterations))
	}

	if p.thresholdReachedAt == 0 {
		return model.Continue(fmt.Sprintf("threshold %.2f not yet met", budget.Threshold))
	}

	if p.thresholdReachedAt == iteration {
		if p.granted <= 0 {
			return model.Stop(fmt.Sprintf("threshold met at iteration %d with no bonus budget left", iteration))
		}
		return model.Continue(fmt.Sprintf("threshold met at iteration %d; granted %d bonus rounds", iteration, p.granted))
	}

	used := iteration - p.thresholdReachedAt
	if used < p.granted {
		return model.Continue(fmt.Sprintf("bonus round %d of %d", used+1, p.granted))
	}
	return model.Stop(fmt.Sprintf("bonus rounds spent (%d)", p.granted))
}

func (p *bonusPolicy) BestResult(history model.History) (model.BestAttempt, bool) {
	return history.Best()
}
