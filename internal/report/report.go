// Package report renders migration results for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mpelletier/agentshift/internal/model"
	"github.com/mpelletier/agentshift/pkg/diff"
)

const fallbackWidth = 80

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	successBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")).Padding(0, 1)
	failureBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Padding(0, 1)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	labelStyle = lipgloss.NewStyle().Faint(true).Width(18)

	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	instructionsBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// Width returns the terminal width of stdout, or a fallback when stdout is
// not a terminal.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallbackWidth
}

// Render writes a human-readable summary of the result.
func Render(w io.Writer, result *model.MigrationResult, width int) {
	if result == nil {
		fmt.Fprintln(w, "no result")
		return
	}
	if width <= 0 {
		width = fallbackWidth
	}

	fmt.Fprintln(w, titleStyle.Render("Migration result"))

	badge := failureBadge.Render(outcomeLabel(result.Outcome))
	if result.Success {
		badge = successBadge.Render(outcomeLabel(result.Outcome))
	}
	fmt.Fprintln(w, badge)

	rows := []struct {
		label string
		value string
	}{
		{"Iterations", fmt.Sprintf("%d", result.Iterations)},
		{"Best iteration", fmt.Sprintf("%d", result.BestIteration)},
		{"Success rate", fmt.Sprintf("%.1f%%", result.FinalSuccessRate*100)},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(row.label), row.value)
	}

	if result.Warning != "" {
		fmt.Fprintln(w, warnStyle.Render("warning: "+result.Warning))
	}

	fmt.Fprintln(w, labelStyle.Render("Best instructions"))
	fmt.Fprintln(w, instructionsBox.Width(min(width-2, 100)).Render(result.FinalInstructions))

	if d := diff.Unified(result.OriginalInstructions, result.FinalInstructions, "original", "converged"); d != "" {
		fmt.Fprintln(w, labelStyle.Render("Changes"))
		fmt.Fprint(w, renderDiff(d))
	}
}

func renderDiff(unified string) string {
	var buf strings.Builder
	for _, line := range strings.Split(strings.TrimRight(unified, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			buf.WriteString(addedStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			buf.WriteString(removedStyle.Render(line))
		default:
			buf.WriteString(line)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

func outcomeLabel(outcome model.Outcome) string {
	switch outcome {
	case model.OutcomeThresholdMet:
		return "THRESHOLD MET"
	case model.OutcomeBudgetExhausted:
		return "BEST EFFORT (budget exhausted)"
	case model.OutcomeAborted:
		return "ABORTED"
	default:
		return strings.ToUpper(string(outcome))
	}
}

// RenderVerdicts writes a per-case breakdown for one-shot scoring runs.
func RenderVerdicts(w io.Writer, verdicts []model.CaseVerdict, rate float64) {
	sorted := make([]model.CaseVerdict, len(verdicts))
	copy(sorted, verdicts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CaseID < sorted[j].CaseID })

	for _, v := range sorted {
		mark := failureBadge.Render("FAIL")
		if v.Passed {
			mark = successBadge.Render("PASS")
		}
		fmt.Fprintf(w, "%s %s  score %.2f", mark, v.CaseID, v.Score)
		if !v.Passed && v.Feedback != "" {
			fmt.Fprintf(w, "  %s", warnStyle.Render(v.Feedback))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s %.1f%% (%d/%d passed)\n",
		labelStyle.Render("Success rate"), rate*100, passedCount(verdicts), len(verdicts))
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
