// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds pipeline statistics for display.
type Stats struct {
	TotalOpportunities  int
	ActiveOpportunities int
	ExecutedTrades      int
	SuccessfulTrades    int
	FailedTrades        int
	SuccessRate         float64
	TotalProfit         float64
	TotalFees           float64
	ActiveStrategies    int
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	lossStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	profitDisplay := profitStyle.Render(fmt.Sprintf("%+.2f", s.stats.TotalProfit))
	if s.stats.TotalProfit < 0 {
		profitDisplay = lossStyle.Render(fmt.Sprintf("%+.2f", s.stats.TotalProfit))
	}

	failedDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.FailedTrades))
	if s.stats.FailedTrades > 0 {
		failedDisplay = lossStyle.Render(fmt.Sprintf("%d", s.stats.FailedTrades))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Opportunities: %s (%s active)  │  Trades: %s  │  Success: %s (%.1f%%)  │  Failed: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.TotalOpportunities)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.ActiveOpportunities)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.ExecutedTrades)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.SuccessfulTrades)),
			s.stats.SuccessRate*100,
			failedDisplay,
		) +
		fmt.Sprintf("Profit: %s  │  Fees: %s  │  Strategies: %s",
			profitDisplay,
			valueStyle.Render(fmt.Sprintf("%.2f", s.stats.TotalFees)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.ActiveStrategies)),
		)
}
