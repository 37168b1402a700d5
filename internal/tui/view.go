package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("agentshift • %s", m.title())))

	ratio := 0.0
	if m.budget.MaxIterations > 0 {
		ratio = math.Min(1.0, float64(len(m.rows))/float64(m.budget.MaxIterations))
	}
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d", len(m.rows), m.budget.MaxIterations))
	progress := lipgloss.JoinHorizontal(lipgloss.Left, label, " ", m.bar.ViewAs(ratio))
	sections = append(sections, sectionStyle.Render("Budget"), progress)

	if len(m.rows) > 0 {
		sections = append(sections, sectionStyle.Render("Iterations"), m.renderRows())
	}

	sections = append(sections, sectionStyle.Render("Status"), m.renderStatus())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderRows() string {
	var lines []string
	for _, row := range m.rows {
		mark := " "
		if row.iteration == m.bestIter {
			mark = bestStyle.Render("★")
		}
		line := fmt.Sprintf(" %s #%d  %5.1f%%  (%d/%d passed)",
			mark, row.iteration, row.successRate*100, row.passed, row.total)
		if row.successRate >= m.budget.Threshold {
			line = successStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	switch {
	case m.cancelled && !m.finished:
		return failureStyle.Render(" cancelling, waiting for the current iteration")
	case m.finished && m.err != nil:
		return failureStyle.Render(" failed: " + m.err.Error())
	case m.finished && m.result != nil && m.result.Success:
		return successStyle.Render(fmt.Sprintf(" threshold met at iteration %d", m.result.BestIteration))
	case m.finished:
		return pendingStyle.Render(" finished")
	default:
		return fmt.Sprintf(" %s running, best %.1f%% at iteration %d",
			m.spin.View(), m.bestRate*100, m.bestIter)
	}
}

func (m Model) title() string {
	if strings.TrimSpace(m.name) != "" {
		return m.name
	}
	return "Migration"
}
