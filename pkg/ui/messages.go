// Package ui provides the Bubble Tea TUI for the arbitrage bot.
package ui

import (
	"time"

	"github.com/nlemus/solarb/business/arbitrage/domain"
)

// Message types for TUI updates

// OpportunityMsg is sent when an arbitrage opportunity is accepted.
type OpportunityMsg struct {
	Opportunity *domain.Opportunity
}

// ExecutionMsg is sent when an execution reaches a terminal state.
type ExecutionMsg struct {
	Execution *domain.Execution
}

// MetricsMsg is sent when pipeline metrics are refreshed.
type MetricsMsg struct {
	Metrics domain.EngineMetrics
}

// ConnectionStatusMsg is sent when a DEX connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ScanMsg is sent when a scan cycle completes.
type ScanMsg struct {
	PoolsScanned  int
	Opportunities int
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// WelcomeCompleteMsg signals the welcome screen is done (timeout or keypress).
type WelcomeCompleteMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}
