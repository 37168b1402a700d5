// Package scorer turns candidate outputs into verdicts. The judge-backed
// implementation asks an evaluator model for per-dimension scores; a case
// passes only when every dimension meets its configured minimum, not merely
// when the aggregate clears a bar.
package scorer

import (
	"context"

	"github.com/mpelletier/agentshift/internal/model"
)

// Scorer judges one (input, reference output, candidate output) triple.
// Implementations are treated as pure functions by the engine: any internal
// nondeterminism is the scorer's concern, and the pass verdict must be stable
// for identical inputs.
type Scorer interface {
	Score(ctx context.Context, ref model.ReferenceCase, candidateOutput string) (model.CaseVerdict, error)
}

// Dimension names the judge scores on every case.
const (
	DimCorrectness  = "correctness"
	DimCompleteness = "completeness"
	DimFormat       = "format"
)

// DefaultMinimums are the per-dimension floors a case must clear to pass.
func DefaultMinimums() map[string]float64 {
	return map[string]float64{
		DimCorrectness:  0.7,
		DimCompleteness: 0.6,
		DimFormat:       0.5,
	}
}

// Passed reports whether every scored dimension meets its minimum. Dimensions
// without a configured minimum are informational only.
func Passed(dimensions, minimums map[string]float64) bool {
	if len(dimensions) == 0 {
		return false
	}
	for dim, floor := range minimums {
		if dimensions[dim] < floor {
			return false
		}
	}
	return true
}

// Aggregate averages the dimension scores into the verdict's single score.
func Aggregate(dimensions map[string]float64) float64 {
	if len(dimensions) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range dimensions {
		total += s
	}
	return total / float64(len(dimensions))
}
