// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ExecutionRow represents one execution in the recent list.
type ExecutionRow struct {
	Timestamp string
	Pair      string
	Signature string
	Status    string
	Profit    decimal.Decimal
	Error     string
}

// ExecutionsComponent renders recent executions.
type ExecutionsComponent struct {
	rows    []ExecutionRow
	maxRows int
}

// NewExecutionsComponent creates a new executions component.
func NewExecutionsComponent(maxRows int) *ExecutionsComponent {
	return &ExecutionsComponent{
		rows:    make([]ExecutionRow, 0),
		maxRows: maxRows,
	}
}

// Add adds an execution to the top of the list.
func (e *ExecutionsComponent) Add(row ExecutionRow) {
	e.rows = append([]ExecutionRow{row}, e.rows...)
	if len(e.rows) > e.maxRows {
		e.rows = e.rows[:e.maxRows]
	}
}

// View renders the executions component.
func (e *ExecutionsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	confirmedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	if len(e.rows) == 0 {
		return headerStyle.Render("EXECUTIONS") + "\n\nNo executions yet..."
	}

	result := headerStyle.Render("EXECUTIONS") + "\n\n"
	for _, row := range e.rows {
		style := mutedStyle
		switch row.Status {
		case "confirmed":
			style = confirmedStyle
		case "failed", "cancelled":
			style = failedStyle
		}

		line := fmt.Sprintf("[%s] %-11s %s %+.2f",
			row.Timestamp,
			truncate(row.Pair, 11),
			style.Render(fmt.Sprintf("%-9s", row.Status)),
			row.Profit.InexactFloat64(),
		)
		if row.Signature != "" {
			line += mutedStyle.Render("  " + truncate(row.Signature, 16))
		}
		if row.Error != "" {
			line += failedStyle.Render("  " + truncate(row.Error, 32))
		}
		result += line + "\n"
	}
	return result
}
