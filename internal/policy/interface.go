// Package policy defines the pluggable stopping rule the convergence engine
// consults after every scored iteration, plus the registry concrete policies
// register themselves with. Policies own their private counters; the engine
// only ever sees Decisions and best attempts.
package policy

import (
	"github.com/mpelletier/agentshift/internal/model"
)

// Policy decides whether the convergence loop keeps revising instructions.
//
// Implementations hold per-run state (patience countdowns, bonus-round
// bookkeeping) that Initialize must reset, so a Policy must not be shared
// across runs without reinitializing. Whatever a policy tracks for its
// continuation decisions, BestResult always answers from the history log:
// the stopping rule controls cost, never which attempt gets reported.
type Policy interface {
	// Name returns the registry name of the policy.
	Name() string

	// Initialize resets internal counters for a fresh run under the given
	// budget.
	Initialize(budget model.Budget)

	// ShouldContinue is called once per completed iteration with the
	// 1-based iteration number, the rate it achieved, the fixed budget and
	// the full history so far.
	ShouldContinue(iteration int, successRate float64, budget model.Budget, history model.History) model.Decision

	// BestResult reconstructs the best historical attempt: maximum success
	// rate, ties broken by earliest iteration.
	BestResult(history model.History) (model.BestAttempt, bool)
}

// Params carries the tuning knobs a policy factory may consume. Unused
// fields are ignored by policies that do not need them.
type Params struct {
	// Patience is the number of iterations without sufficient improvement
	// tolerated before stopping.
	Patience int
	// MinImprovement is the minimum success-rate gain that counts as
	// improvement for the patience rule.
	MinImprovement float64
	// BonusRounds is the number of extra iterations requested after the
	// threshold is first met.
	BonusRounds int
}

// Factory builds a fresh, uninitialized policy instance from params.
type Factory func(params Params) (Policy, error)
