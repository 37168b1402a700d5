// Package tui renders live migration progress with Bubbletea.
package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mpelletier/agentshift/internal/model"
)

// IterationMsg reports one completed scoring iteration.
type IterationMsg struct {
	Event model.ProgressEvent
}

// DoneMsg carries the final migration result.
type DoneMsg struct {
	Result *model.MigrationResult
	Err    error
}

type iterationRow struct {
	iteration   int
	successRate float64
	passed      int
	total       int
}

// Model contains the Bubbletea state for a running migration.
type Model struct {
	name      string
	budget    model.Budget
	cancel    func()
	spin      spinner.Model
	bar       progress.Model
	rows      []iterationRow
	bestRate  float64
	bestIter  int
	result    *model.MigrationResult
	err       error
	finished  bool
	cancelled bool
}

// NewModel constructs the progress model. cancel is invoked when the user
// interrupts the run; it may be nil.
func NewModel(name string, budget model.Budget, cancel func()) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = runningStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30

	return Model{
		name:   name,
		budget: budget,
		cancel: cancel,
		spin:   spin,
		bar:    bar,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Result returns the final migration result once the run has finished.
func (m Model) Result() (*model.MigrationResult, error) {
	return m.result, m.err
}

// IsFinished reports whether the migration has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the user interrupted the run.
func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m *Model) recordIteration(ev model.ProgressEvent) {
	m.rows = append(m.rows, iterationRow{
		iteration:   ev.Iteration,
		successRate: ev.SuccessRate,
		passed:      ev.Passed,
		total:       ev.Total,
	})
	if len(m.rows) == 1 || ev.SuccessRate > m.bestRate {
		m.bestRate = ev.SuccessRate
		m.bestIter = ev.Iteration
	}
}
