// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow represents an opportunity in the list.
type OpportunityRow struct {
	Timestamp  string
	Pair       string
	BuyDex     string
	SellDex    string
	ProfitPct  decimal.Decimal
	NetProfit  decimal.Decimal
	Risk       string
	Status     string
	Profitable bool
}

// OpportunitiesComponent renders the opportunities list.
type OpportunitiesComponent struct {
	rows     []OpportunityRow
	maxRows  int
	offset   int
	pageSize int
}

// NewOpportunitiesComponent creates a new opportunities component.
func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:     make([]OpportunityRow, 0),
		maxRows:  maxRows,
		pageSize: 10,
	}
}

// Add adds a new opportunity to the top of the list.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.offset = 0
}

// ScrollUp moves the view toward newer rows.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the view toward older rows.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset < len(o.rows)-o.pageSize {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	profitableStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	unprofitableStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	if len(o.rows) == 0 {
		return headerStyle.Render("OPPORTUNITIES") + "\n\nNo opportunities detected yet..."
	}

	result := headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (last %d)\n", o.maxRows))
	result += "┌──────────┬─────────────┬───────────┬───────────┬─────────┬───────────┬──────────┐\n"
	result += "│   Time   │    Pair     │    Buy    │   Sell    │ Profit  │    Net    │   Risk   │\n"
	result += "├──────────┼─────────────┼───────────┼───────────┼─────────┼───────────┼──────────┤\n"

	end := o.offset + o.pageSize
	if end > len(o.rows) {
		end = len(o.rows)
	}

	for _, row := range o.rows[o.offset:end] {
		style := profitableStyle
		if !row.Profitable {
			style = unprofitableStyle
		}

		result += fmt.Sprintf("│ %-8s │ %-11s │ %-9s │ %-9s │%7s%% │%10s │ %s│\n",
			row.Timestamp,
			truncate(row.Pair, 11),
			truncate(row.BuyDex, 9),
			truncate(row.SellDex, 9),
			fmt.Sprintf("%.2f", row.ProfitPct.Mul(decimal.NewFromInt(100)).InexactFloat64()),
			fmt.Sprintf("%.2f", row.NetProfit.InexactFloat64()),
			style.Render(fmt.Sprintf("%-9s", row.Risk)),
		)
	}

	result += "└──────────┴─────────────┴───────────┴───────────┴─────────┴───────────┴──────────┘"
	return result
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
