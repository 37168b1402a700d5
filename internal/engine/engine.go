// Package engine drives the migration convergence loop: run the candidate
// instructions over every reference case, score the batch, ask the stopping
// policy whether to continue, revise the instructions from the failures, and
// repeat until the policy or the budget says stop. The engine owns the
// iteration history; policies, scorers and revisers are plugged in.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mpelletier/agentshift/internal/llm"
	"github.com/mpelletier/agentshift/internal/logger"
	"github.com/mpelletier/agentshift/internal/model"
	"github.com/mpelletier/agentshift/internal/policy"
	"github.com/mpelletier/agentshift/internal/reviser"
	"github.com/mpelletier/agentshift/internal/scorer"
	agentshifterrors "github.com/mpelletier/agentshift/pkg/errors"
)

const (
	defaultParallel    = 4
	defaultCaseTimeout = 60 * time.Second
)

// ProgressSink observes completed iterations. Sinks run after each policy
// decision; a sink that panics or blocks briefly cannot change the outcome
// of the run.
type ProgressSink interface {
	OnIteration(event model.ProgressEvent)
}

// SinkFunc adapts a function to the ProgressSink interface.
type SinkFunc func(event model.ProgressEvent)

// OnIteration implements ProgressSink.
func (f SinkFunc) OnIteration(event model.ProgressEvent) { f(event) }

// Request bundles everything one migration run needs. The budget and the
// reference cases are fixed for the duration of the run.
type Request struct {
	// Source is the expensive agent being replaced. Its instructions seed
	// the first candidate.
	Source llm.Agent
	// Target is the cheaper agent whose provider executes every candidate.
	Target llm.Agent

	Cases  []model.ReferenceCase
	Budget model.Budget

	// Policy must be freshly constructed; the engine initializes it and
	// wraps it with the budget guard.
	Policy  policy.Policy
	Scorer  scorer.Scorer
	Reviser reviser.Reviser

	// Parallel bounds how many case executions run concurrently within one
	// iteration. Zero selects the default of 4.
	Parallel int
	// CaseTimeout bounds a single candidate execution. A case that exceeds
	// it is recorded as a failed verdict instead of stalling the iteration.
	// Zero selects the default of 60s.
	CaseTimeout time.Duration

	Sinks []ProgressSink
}

// Engine runs migrations.
type Engine struct {
	log *logger.Logger
}

// New creates an engine instance.
func New(log *logger.Logger) *Engine {
	return &Engine{log: log.WithComponent("engine")}
}

func (r *Request) validate() error {
	if len(r.Cases) == 0 {
		return agentshifterrors.NewValidationError("cases", "at least one reference case is required", nil)
	}
	if r.Budget.MaxIterations < 1 {
		return agentshifterrors.NewValidationError("budget.max_iterations", "must be at least 1", nil)
	}
	if r.Budget.Threshold < 0 || r.Budget.Threshold > 1 {
		return agentshifterrors.NewValidationError("budget.threshold", "must be in [0,1]", nil)
	}
	if r.Policy == nil {
		return agentshifterrors.NewValidationError("policy", "policy is required", nil)
	}
	if r.Scorer == nil {
		return agentshifterrors.NewValidationError("scorer", "scorer is required", nil)
	}
	if r.Reviser == nil {
		return agentshifterrors.NewValidationError("reviser", "reviser is required", nil)
	}
	if r.Target.Provider == nil {
		return agentshifterrors.NewValidationError("target", "target agent has no provider", nil)
	}
	seen := make(map[string]struct{}, len(r.Cases))
	for _, ref := range r.Cases {
		if _, dup := seen[ref.ID]; dup {
			return agentshifterrors.NewValidationError("cases", fmt.Sprintf("duplicate case id %q", ref.ID), nil)
		}
		seen[ref.ID] = struct{}{}
	}
	return nil
}

// Migrate runs the convergence loop to completion and returns the final
// result. On fatal errors (iteration produced no verdicts, reviser failed,
// run cancelled) the best result from completed iterations is returned
// alongside the error; the result is nil only when no iteration completed.
func (e *Engine) Migrate(ctx context.Context, req Request) (*model.MigrationResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	pol := policy.Guard(req.Policy)
	pol.Initialize(req.Budget)

	e.log.WithFields(map[string]any{
		"policy":         req.Policy.Name(),
		"cases":          len(req.Cases),
		"threshold":      req.Budget.Threshold,
		"max_iterations": req.Budget.MaxIterations,
	}).Info("starting migration")

	instructions := req.Source.Instructions
	var history model.History

	for iteration := 1; ; iteration++ {
		// Cancellation lands between iterations; in-flight requests from a
		// cancelled batch are simply discarded.
		if ctx.Err() != nil {
			result := e.buildResult(pol, history, req, model.OutcomeAborted, "run cancelled")
			return result, ctx.Err()
		}

		verdicts, outputs, err := e.runBatch(ctx, &req, instructions)
		if err != nil {
			if ctx.Err() != nil {
				result := e.buildResult(pol, history, req, model.OutcomeAborted, "run cancelled")
				return result, ctx.Err()
			}
			result := e.buildResult(pol, history, req, model.OutcomeAborted, "iteration produced no verdicts")
			return result, agentshifterrors.NewIterationError(iteration, err)
		}

		rate := model.SuccessRate(verdicts)
		history = history.Append(instructions, rate, verdicts)

		decision := pol.ShouldContinue(iteration, rate, req.Budget, history)

		e.log.Iteration(iteration, rate, passedCount(verdicts), len(verdicts))
		e.emit(req.Sinks, model.ProgressEvent{
			Iteration:    iteration,
			SuccessRate:  rate,
			Instructions: instructions,
			Passed:       passedCount(verdicts),
			Total:        len(verdicts),
		})

		if !decision.ShouldContinue {
			e.log.WithFields(map[string]any{"reason": decision.Reason}).Info("stopping")
			return e.finishResult(pol, history, req), nil
		}

		failures := collectFailures(req.Cases, verdicts, outputs)
		revised, err := req.Reviser.Revise(ctx, instructions, failures)
		if err != nil {
			// No silent fallback to the unmodified prompt: surface the best
			// attempt so far with an explicit could-not-continue signal.
			result := e.buildResult(pol, history, req, model.OutcomeAborted, "could not continue optimizing: reviser failed")
			return result, agentshifterrors.NewReviserError(iteration, err)
		}
		instructions = revised
	}
}

// finishResult builds the result for a normally terminated run.
func (e *Engine) finishResult(pol policy.Policy, history model.History, req Request) *model.MigrationResult {
	best, _ := pol.BestResult(history)
	outcome := model.OutcomeBudgetExhausted
	if best.SuccessRate >= req.Budget.Threshold {
		outcome = model.OutcomeThresholdMet
	}

	return &model.MigrationResult{
		Success:              best.SuccessRate >= req.Budget.Threshold,
		Outcome:              outcome,
		Iterations:           history.Len(),
		FinalSuccessRate:     best.SuccessRate,
		FinalInstructions:    best.Instructions,
		OriginalInstructions: req.Source.Instructions,
		BestIteration:        best.Iteration,
	}
}

// buildResult builds the result for an aborted run. It returns nil when no
// iteration completed, leaving only the error for the caller.
func (e *Engine) buildResult(pol policy.Policy, history model.History, req Request, outcome model.Outcome, warning string) *model.MigrationResult {
	best, ok := pol.BestResult(history)
	if !ok {
		return nil
	}

	return &model.MigrationResult{
		Success:              false,
		Outcome:              outcome,
		Iterations:           history.Len(),
		FinalSuccessRate:     best.SuccessRate,
		FinalInstructions:    best.Instructions,
		OriginalInstructions: req.Source.Instructions,
		BestIteration:        best.Iteration,
		Warning:              warning,
	}
}

// emit delivers the event to every sink, isolating the loop from sink panics.
func (e *Engine) emit(sinks []ProgressSink, event model.ProgressEvent) {
	for _, sink := range sinks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.log.Warn(fmt.Sprintf("progress sink panicked: %v", r))
				}
			}()
			sink.OnIteration(event)
		}()
	}
}

func passedCount(verdicts []model.CaseVerdict) int {
	n := 0
	for _, v := range verdicts {
		if v.Passed {
			n++
		}
	}
	return n
}

func collectFailures(cases []model.ReferenceCase, verdicts []model.CaseVerdict, outputs map[string]string) []reviser.FailingCase {
	refByID := make(map[string]model.ReferenceCase, len(cases))
	for _, ref := range cases {
		refByID[ref.ID] = ref
	}

	var failures []reviser.FailingCase
	for _, v := range verdicts {
		if v.Passed {
			continue
		}
		failures = append(failures, reviser.FailingCase{
			Ref:             refByID[v.CaseID],
			Verdict:         v,
			CandidateOutput: outputs[v.CaseID],
		})
	}
	return failures
}
