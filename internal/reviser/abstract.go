package reviser

import (
	"fmt"
	"sort"
	"strings"
)

// FailurePattern is the abstracted view of a group of failing cases: what
// kind of input failed, how often, which issues the judge tagged, and which
// way the output length missed — but never the case texts themselves.
type FailurePattern struct {
	Category        string
	Count           int
	Tags            []string
	LengthDirection string // "too_short", "too_long" or "comparable"
	Feedback        string
}

// Abstract groups failing cases by category and reduces each group to a
// transferable pattern. The returned patterns contain no verbatim inputs,
// reference outputs or candidate outputs.
func Abstract(failures []FailingCase) []FailurePattern {
	groups := make(map[string][]FailingCase)
	for _, f := range failures {
		category := f.Ref.Category
		if category == "" {
			category = "general"
		}
		groups[category] = append(groups[category], f)
	}

	categories := make([]string, 0, len(groups))
	for category := range groups {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	patterns := make([]FailurePattern, 0, len(categories))
	for _, category := range categories {
		group := groups[category]
		patterns = append(patterns, FailurePattern{
			Category:        category,
			Count:           len(group),
			Tags:            collectTags(group),
			LengthDirection: lengthDirection(group),
			Feedback:        representativeFeedback(group),
		})
	}
	return patterns
}

func collectTags(group []FailingCase) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, f := range group {
		for _, tag := range f.Verdict.FailureTags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// lengthDirection compares average candidate and reference lengths. A 25%
// relative gap is treated as a real mismatch; anything tighter is noise.
func lengthDirection(group []FailingCase) string {
	var refTotal, candTotal int
	for _, f := range group {
		refTotal += len(f.Ref.ReferenceOutput)
		candTotal += len(f.CandidateOutput)
	}
	if refTotal == 0 {
		return "comparable"
	}

	ratio := float64(candTotal) / float64(refTotal)
	switch {
	case ratio < 0.75:
		return "too_short"
	case ratio > 1.25:
		return "too_long"
	default:
		return "comparable"
	}
}

// representativeFeedback picks the judge feedback from the worst-scoring
// case in the group; the steepest failure usually names the real gap.
func representativeFeedback(group []FailingCase) string {
	worst := group[0]
	for _, f := range group[1:] {
		if f.Verdict.Score < worst.Verdict.Score {
			worst = f
		}
	}
	return worst.Verdict.Feedback
}

// Describe renders patterns as the bullet list shown to the reviser model.
func Describe(patterns []FailurePattern) string {
	var b strings.Builder
	for _, p := range patterns {
		fmt.Fprintf(&b, "- category %q: %d failing case(s)", p.Category, p.Count)
		if len(p.Tags) > 0 {
			fmt.Fprintf(&b, "; issues: %s", strings.Join(p.Tags, ", "))
		}
		if p.LengthDirection != "comparable" {
			fmt.Fprintf(&b, "; outputs are %s", strings.ReplaceAll(p.LengthDirection, "_", " "))
		}
		if p.Feedback != "" {
			fmt.Fprintf(&b, "; evaluator notes: %s", p.Feedback)
		}
		b.WriteString("\n")
	}
	return b.String()
}
