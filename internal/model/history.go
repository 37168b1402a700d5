package model

// IterationRecord is one completed pass of the convergence loop: the
// instructions that were tested, the rate they achieved and the verdicts
// behind that rate. Records are immutable once appended.
type IterationRecord struct {
	Iteration    int
	Instructions string
	SuccessRate  float64
	Verdicts     []CaseVerdict
}

// History is the append-only log of completed iterations. Records are
// numbered from 1 and appended in order; the log is scanned, never replayed
// or mutated, when the best attempt is computed at termination.
type History []IterationRecord

// Append returns the history extended with a record for the next iteration.
func (h History) Append(instructions string, successRate float64, verdicts []CaseVerdict) History {
	return append(h, IterationRecord{
		Iteration:    len(h) + 1,
		Instructions: instructions,
		SuccessRate:  successRate,
		Verdicts:     verdicts,
	})
}

// Len reports the number of completed iterations.
func (h History) Len() int { return len(h) }

// Last returns the most recent record. ok is false for an empty history.
func (h History) Last() (IterationRecord, bool) {
	if len(h) == 0 {
		return IterationRecord{}, false
	}
	return h[len(h)-1], true
}

// Best scans the full log for the maximum success rate, breaking ties in
// favor of the earliest iteration. Scanning the log instead of tracking a
// running pointer keeps "best so far" from drifting out of sync with
// whatever bookkeeping a stopping rule does on top. ok is false for an
// empty history.
func (h History) Best() (BestAttempt, bool) {
	if len(h) == 0 {
		return BestAttempt{}, false
	}

	best := h[0]
	for _, rec := range h[1:] {
		if rec.SuccessRate > best.SuccessRate {
			best = rec
		}
	}

	return BestAttempt{
		Iteration:    best.Iteration,
		SuccessRate:  best.SuccessRate,
		Instructions: best.Instructions,
	}, true
}

// SuccessRate computes the fraction of passed verdicts. It returns 0 for an
// empty slice; callers decide whether an empty batch is an error.
func SuccessRate(verdicts []CaseVerdict) float64 {
	if len(verdicts) == 0 {
		return 0
	}

	passed := 0
	for _, v := range verdicts {
		if v.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(verdicts))
}
