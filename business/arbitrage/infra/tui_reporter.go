// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"time"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/pkg/ui"
)

// TUIReporter forwards pipeline events to the Bubble Tea program.
type TUIReporter struct{}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{}
}

// Start initializes the TUI reporter. The Bubble Tea program itself is
// started by the composition root; this just confirms it is reachable.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// ReportScan sends scan cycle stats to the TUI.
func (r *TUIReporter) ReportScan(poolsScanned, opportunities int) {
	ui.Send(ui.ScanMsg{PoolsScanned: poolsScanned, Opportunities: opportunities})
}

// ReportOpportunity sends an opportunity to the TUI.
func (r *TUIReporter) ReportOpportunity(o *domain.Opportunity) {
	ui.Send(ui.OpportunityMsg{Opportunity: o})
}

// ReportExecution sends a finished execution to the TUI.
func (r *TUIReporter) ReportExecution(e *domain.Execution) {
	ui.Send(ui.ExecutionMsg{Execution: e})
}

// UpdateMetrics refreshes the TUI stats panel.
func (r *TUIReporter) UpdateMetrics(m domain.EngineMetrics) {
	ui.Send(ui.MetricsMsg{Metrics: m})
}

// UpdateConnectionStatus sends connection status to the TUI.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	ui.Send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

// Stop gracefully shuts down the TUI reporter.
func (r *TUIReporter) Stop() error {
	return nil
}
