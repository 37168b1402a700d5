package model

// ReferenceCase is one (input, gold-standard output) pair captured from the
// source agent. Cases are immutable once captured; the engine only reads them.
type ReferenceCase struct {
	ID              string `yaml:"id"`
	Input           string `yaml:"input"`
	ReferenceOutput string `yaml:"reference_output"`
	Category        string `yaml:"category,omitempty"`
}

// CaseVerdict is the scorer's judgment on a single case.
type CaseVerdict struct {
	CaseID string
	// Score is the aggregate score in [0, 1].
	Score  float64
	Passed bool
	// Dimensions holds the per-dimension scores (correctness, completeness,
	// format) that Passed is derived from. A case passes only when every
	// dimension meets its configured minimum.
	Dimensions  map[string]float64
	Feedback    string
	FailureTags []string
}

// Budget bounds a migration run. It is fixed for the duration of the run.
type Budget struct {
	// Threshold is the success rate the target agent must reach for the
	// migration to count as successful.
	Threshold float64
	// MaxIterations caps the number of revise-and-rescore passes.
	MaxIterations int
}

// Decision is a policy's answer to "keep going?". It is transient; only the
// iteration history is retained.
type Decision struct {
	ShouldContinue bool
	Reason         string
}

// Continue builds an affirmative Decision with the supplied reason.
func Continue(reason string) Decision {
	return Decision{ShouldContinue: true, Reason: reason}
}

// Stop builds a negative Decision with the supplied reason.
func Stop(reason string) Decision {
	return Decision{ShouldContinue: false, Reason: reason}
}

// BestAttempt identifies the best-scoring iteration in a history.
type BestAttempt struct {
	Iteration    int
	SuccessRate  float64
	Instructions string
}

// Outcome classifies how a migration run ended.
type Outcome string

const (
	// OutcomeThresholdMet means the best attempt reached the budget threshold.
	OutcomeThresholdMet Outcome = "threshold_met"
	// OutcomeBudgetExhausted means the loop ran out of iterations (or the
	// policy stopped it) without reaching the threshold; the best attempt is
	// still reported.
	OutcomeBudgetExhausted Outcome = "budget_exhausted"
	// OutcomeAborted means the run stopped early because of a fatal error or
	// cancellation; the best attempt from completed iterations is reported.
	OutcomeAborted Outcome = "aborted"
)

// MigrationResult is the final product of a migration run. It is built once
// at loop termination and never mutated afterwards.
type MigrationResult struct {
	Success              bool
	Outcome              Outcome
	Iterations           int
	FinalSuccessRate     float64
	FinalInstructions    string
	OriginalInstructions string
	// BestIteration is the iteration the reported instructions came from,
	// which may be earlier than Iterations when later rounds regressed.
	BestIteration int
	// Warning is set when the run could not continue optimizing (for example
	// a reviser failure) but a valid earlier result is still being returned.
	Warning string
}

// ProgressEvent is delivered to progress sinks after each completed iteration.
// Sinks observe the run; they can never alter its outcome.
type ProgressEvent struct {
	Iteration    int
	SuccessRate  float64
	Instructions string
	Passed       int
	Total        int
}
