package app

import (
	"context"
	"sync"
	"time"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/logger"
)

const monitorInterval = time.Second

// ExecutorConfig bounds executor concurrency.
type ExecutorConfig struct {
	MaxConcurrent int
}

// Executor drains the engine's work channel, submits executions
// through the watcher and reports terminal results back.
type Executor struct {
	config  ExecutorConfig
	watcher TxWatcher
	work    <-chan *domain.Execution
	results chan<- *domain.Execution

	mu     sync.RWMutex
	active map[string]*domain.Execution
	stats  domain.ExecutionStats

	log logger.LoggerInterface
}

// NewExecutor wires the executor to its channels.
func NewExecutor(config ExecutorConfig, watcher TxWatcher, work <-chan *domain.Execution, results chan<- *domain.Execution, log logger.LoggerInterface) *Executor {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 5
	}
	return &Executor{
		config:  config,
		watcher: watcher,
		work:    work,
		results: results,
		active:  make(map[string]*domain.Execution),
		log:     log,
	}
}

// Run accepts and monitors executions until ctx is cancelled.
func (x *Executor) Run(ctx context.Context) error {
	x.log.Info(ctx, "executor starting", "max_concurrent", x.config.MaxConcurrent)

	monitor := time.NewTicker(monitorInterval)
	defer monitor.Stop()

	for {
		select {
		case <-ctx.Done():
			x.log.Info(ctx, "executor stopping", "reason", ctx.Err())
			return ctx.Err()
		case execution := <-x.work:
			if execution != nil {
				x.accept(ctx, execution)
			}
		case <-monitor.C:
			x.monitor(ctx)
		}
	}
}

func (x *Executor) accept(ctx context.Context, execution *domain.Execution) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(x.active) >= x.config.MaxConcurrent {
		x.log.Warn(ctx, "executor at capacity, dropping execution",
			"id", execution.ID, "active", len(x.active))
		return
	}

	x.active[execution.ID] = execution
	x.stats.Total++
	x.log.Info(ctx, "execution accepted", "id", execution.ID,
		"opportunity", execution.Opportunity.ID)
}

// monitor advances every in-flight execution one step and flushes the
// finished ones back to the engine.
func (x *Executor) monitor(ctx context.Context) {
	x.mu.Lock()
	terminal := make([]*domain.Execution, 0, len(x.active))
	live := make([]*domain.Execution, 0, len(x.active))
	for _, execution := range x.active {
		if execution.Status.IsTerminal() {
			terminal = append(terminal, execution)
		} else {
			live = append(live, execution)
		}
	}
	x.mu.Unlock()

	for _, execution := range terminal {
		x.finish(ctx, execution)
	}
	for _, execution := range live {
		x.advance(ctx, execution)
	}
}

// advance drives one step of the execution state machine. Watcher
// calls run without the lock; the resulting transition is applied
// only if the status is still the one the step started from, so a
// concurrent Cancel or Retry always wins.
func (x *Executor) advance(ctx context.Context, execution *domain.Execution) {
	x.mu.RLock()
	status := execution.Status
	signature := execution.TransactionSignature
	x.mu.RUnlock()

	switch status {
	case domain.ExecutionPending:
		sig, err := x.watcher.Submit(ctx, execution)
		if err != nil {
			if apperror.Retryable(err) {
				x.log.Warn(ctx, "submission failed, will retry",
					"id", execution.ID, "error", err)
				return
			}
			x.transition(execution, domain.ExecutionPending, func(e *domain.Execution) {
				e.Status = domain.ExecutionFailed
				e.ErrorMessage = err.Error()
			})
			x.log.Error(ctx, "submission failed", "id", execution.ID, "error", err)
			return
		}
		if x.transition(execution, domain.ExecutionPending, func(e *domain.Execution) {
			e.Status = domain.ExecutionSubmitted
			e.TransactionSignature = sig
		}) {
			x.log.Info(ctx, "execution submitted", "id", execution.ID, "signature", sig)
		}

	case domain.ExecutionSubmitted:
		receipt, err := x.watcher.Status(ctx, signature)
		if err != nil {
			x.log.Warn(ctx, "status check failed", "id", execution.ID, "error", err)
			return
		}

		switch receipt.Status {
		case TxConfirmed:
			x.transition(execution, domain.ExecutionSubmitted, func(e *domain.Execution) {
				e.Status = domain.ExecutionConfirmed
				e.GasUsed = receipt.GasUsed
				e.GasPrice = receipt.GasPrice
				e.TotalCost = receipt.GasUsed.Mul(receipt.GasPrice).Add(e.Route.TotalFees)
				e.ActualProfit = e.Route.ExpectedOutput.
					Sub(e.Route.InputAmount).
					Sub(e.TotalCost)
				e.Route.ActualOutput = e.Route.ExpectedOutput
			})
		case TxFailed:
			x.transition(execution, domain.ExecutionSubmitted, func(e *domain.Execution) {
				e.Status = domain.ExecutionFailed
				e.ErrorMessage = receipt.Error
			})
		}
	}
}

// transition applies fn under the lock when the execution still holds
// the expected status. Reports whether the change was applied.
func (x *Executor) transition(execution *domain.Execution, from domain.ExecutionStatus, fn func(*domain.Execution)) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if execution.Status != from {
		return false
	}
	fn(execution)
	return true
}

func (x *Executor) finish(ctx context.Context, execution *domain.Execution) {
	x.mu.Lock()
	delete(x.active, execution.ID)
	switch execution.Status {
	case domain.ExecutionConfirmed:
		x.stats.Successful++
	case domain.ExecutionFailed:
		x.stats.Failed++
	case domain.ExecutionCancelled:
		x.stats.Cancelled++
	}
	x.mu.Unlock()

	select {
	case x.results <- execution:
	case <-ctx.Done():
	}
}

// Cancel aborts an in-flight execution.
func (x *Executor) Cancel(id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	execution, ok := x.active[id]
	if !ok {
		return apperror.NotFound(apperror.CodeExecutionNotFound, id)
	}
	if execution.Status.IsTerminal() {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("execution "+id+" already finished"))
	}
	execution.Status = domain.ExecutionCancelled
	return nil
}

// Retry requeues a failed execution.
func (x *Executor) Retry(id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	execution, ok := x.active[id]
	if !ok {
		return apperror.NotFound(apperror.CodeExecutionNotFound, id)
	}
	if execution.Status != domain.ExecutionFailed {
		return apperror.New(apperror.CodeExecutionNotRetryable, apperror.WithContext(id))
	}

	execution.Status = domain.ExecutionPending
	execution.ErrorMessage = ""
	return nil
}

// ActiveExecutions returns a snapshot of in-flight executions. The
// snapshot holds copies so callers never observe a half-applied
// transition.
func (x *Executor) ActiveExecutions() []*domain.Execution {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]*domain.Execution, 0, len(x.active))
	for _, execution := range x.active {
		copied := *execution
		out = append(out, &copied)
	}
	return out
}

// Stats returns lifetime executor counters.
func (x *Executor) Stats() domain.ExecutionStats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.stats
}
