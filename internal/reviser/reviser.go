// Package reviser produces improved instruction text from failure evidence.
// In its default mode the model is shown abstracted failure patterns instead
// of verbatim failing cases, so revisions have to generalize rather than
// memorize answers to the reference set.
package reviser

import (
	"context"

	"github.com/mpelletier/agentshift/internal/model"
)

// FailingCase pairs a failed verdict with its reference case and the
// candidate output that earned it. Candidate outputs exist only for the
// duration of the iteration; the reviser is their last consumer.
type FailingCase struct {
	Ref             model.ReferenceCase
	Verdict         model.CaseVerdict
	CandidateOutput string
}

// Reviser rewrites instructions given evidence of failure.
type Reviser interface {
	Revise(ctx context.Context, instructions string, failures []FailingCase) (string, error)
}
