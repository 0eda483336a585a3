package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/internal/apperror"
)

func newTestExecutor(maxConcurrent int, watcher TxWatcher) (*Executor, chan *domain.Execution, chan *domain.Execution) {
	work := make(chan *domain.Execution, 10)
	results := make(chan *domain.Execution, 10)
	x := NewExecutor(ExecutorConfig{MaxConcurrent: maxConcurrent}, watcher, work, results, testLogger())
	return x, work, results
}

func pendingExecution() *domain.Execution {
	e := domain.NewExecution(*testOpportunity(), decimal.NewFromInt(1000))
	return &e
}

func TestExecutor_ConfirmedLifecycle(t *testing.T) {
	ctx := context.Background()
	watcher := &fakeWatcher{
		receipt: TxReceipt{
			Status:   TxConfirmed,
			GasUsed:  decimal.NewFromInt(5000),
			GasPrice: decimal.RequireFromString("0.000000001"),
		},
	}
	x, _, results := newTestExecutor(5, watcher)

	e := pendingExecution()
	x.accept(ctx, e)

	// First tick submits, second confirms, third flushes the result.
	x.monitor(ctx)
	if e.Status != domain.ExecutionSubmitted {
		t.Fatalf("Status = %s, want submitted", e.Status)
	}
	if e.TransactionSignature == "" {
		t.Fatal("signature should be set after submission")
	}

	x.monitor(ctx)
	if e.Status != domain.ExecutionConfirmed {
		t.Fatalf("Status = %s, want confirmed", e.Status)
	}

	wantCost := decimal.NewFromInt(5000).
		Mul(decimal.RequireFromString("0.000000001")).
		Add(e.Route.TotalFees)
	if !e.TotalCost.Equal(wantCost) {
		t.Errorf("TotalCost = %s, want %s", e.TotalCost, wantCost)
	}
	wantProfit := e.Route.ExpectedOutput.Sub(e.Route.InputAmount).Sub(e.TotalCost)
	if !e.ActualProfit.Equal(wantProfit) {
		t.Errorf("ActualProfit = %s, want %s", e.ActualProfit, wantProfit)
	}

	x.monitor(ctx)
	select {
	case got := <-results:
		if got.ID != e.ID {
			t.Errorf("result ID = %s, want %s", got.ID, e.ID)
		}
	default:
		t.Fatal("terminal execution should be flushed to results")
	}

	if len(x.ActiveExecutions()) != 0 {
		t.Error("finished execution should leave the active set")
	}
	if stats := x.Stats(); stats.Successful != 1 || stats.Total != 1 {
		t.Errorf("Stats() = %+v, want 1 successful of 1", stats)
	}
}

func TestExecutor_RetryableSubmitErrorKeepsPending(t *testing.T) {
	ctx := context.Background()
	watcher := &fakeWatcher{submitErr: apperror.New(apperror.CodeDexTimeout)}
	x, _, _ := newTestExecutor(5, watcher)

	e := pendingExecution()
	x.accept(ctx, e)

	x.monitor(ctx)
	if e.Status != domain.ExecutionPending {
		t.Fatalf("Status = %s, want pending after transient error", e.Status)
	}

	// Once the upstream recovers the next tick submits normally.
	watcher.mu.Lock()
	watcher.submitErr = nil
	watcher.mu.Unlock()

	x.monitor(ctx)
	if e.Status != domain.ExecutionSubmitted {
		t.Fatalf("Status = %s, want submitted after recovery", e.Status)
	}
}

func TestExecutor_FatalSubmitErrorFails(t *testing.T) {
	ctx := context.Background()
	watcher := &fakeWatcher{submitErr: apperror.New(apperror.CodeInvalidInput)}
	x, _, _ := newTestExecutor(5, watcher)

	e := pendingExecution()
	x.accept(ctx, e)

	x.monitor(ctx)
	if e.Status != domain.ExecutionFailed {
		t.Fatalf("Status = %s, want failed", e.Status)
	}
	if e.ErrorMessage == "" {
		t.Error("failed execution should carry the error message")
	}
}

func TestExecutor_FailedTransaction(t *testing.T) {
	ctx := context.Background()
	watcher := &fakeWatcher{
		receipt: TxReceipt{Status: TxFailed, Error: "slippage exceeded"},
	}
	x, _, results := newTestExecutor(5, watcher)

	e := pendingExecution()
	x.accept(ctx, e)

	x.monitor(ctx) // submit
	x.monitor(ctx) // fail
	x.monitor(ctx) // flush

	if e.Status != domain.ExecutionFailed {
		t.Fatalf("Status = %s, want failed", e.Status)
	}
	if e.ErrorMessage != "slippage exceeded" {
		t.Errorf("ErrorMessage = %q", e.ErrorMessage)
	}

	select {
	case <-results:
	default:
		t.Fatal("failed execution should be flushed to results")
	}
	if stats := x.Stats(); stats.Failed != 1 {
		t.Errorf("Stats().Failed = %d, want 1", stats.Failed)
	}
}

func TestExecutor_CapacityDropsOverflow(t *testing.T) {
	ctx := context.Background()
	x, _, _ := newTestExecutor(1, &fakeWatcher{})

	x.accept(ctx, pendingExecution())
	x.accept(ctx, pendingExecution())

	if got := len(x.ActiveExecutions()); got != 1 {
		t.Errorf("active = %d, want 1", got)
	}
	if stats := x.Stats(); stats.Total != 1 {
		t.Errorf("Stats().Total = %d, want 1", stats.Total)
	}
}

func TestExecutor_Cancel(t *testing.T) {
	ctx := context.Background()
	x, _, _ := newTestExecutor(5, &fakeWatcher{})

	if err := x.Cancel("missing"); apperror.GetCode(err) != apperror.CodeExecutionNotFound {
		t.Errorf("Cancel(unknown) code = %v, want EXECUTION_NOT_FOUND", apperror.GetCode(err))
	}

	e := pendingExecution()
	x.accept(ctx, e)
	if err := x.Cancel(e.ID); err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}
	if e.Status != domain.ExecutionCancelled {
		t.Errorf("Status = %s, want cancelled", e.Status)
	}
}

// gateWatcher parks Status calls until released so tests can act
// while a poll is in flight.
type gateWatcher struct {
	started chan struct{}
	release chan struct{}
}

func (w *gateWatcher) Submit(ctx context.Context, e *domain.Execution) (string, error) {
	return "SIG-GATE", nil
}

func (w *gateWatcher) Status(ctx context.Context, signature string) (TxReceipt, error) {
	close(w.started)
	<-w.release
	return TxReceipt{
		Status:   TxConfirmed,
		GasUsed:  decimal.NewFromInt(5000),
		GasPrice: decimal.New(1, -9),
	}, nil
}

func TestExecutor_CancelWinsOverInFlightPoll(t *testing.T) {
	ctx := context.Background()
	watcher := &gateWatcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	x, _, results := newTestExecutor(5, watcher)

	e := pendingExecution()
	x.accept(ctx, e)
	x.monitor(ctx) // submit

	done := make(chan struct{})
	go func() {
		x.advance(ctx, e)
		close(done)
	}()

	// Cancel lands while the watcher is mid-poll; the poll's confirmed
	// receipt must not overwrite it.
	<-watcher.started
	if err := x.Cancel(e.ID); err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}
	close(watcher.release)
	<-done

	if e.Status != domain.ExecutionCancelled {
		t.Fatalf("Status = %s, want cancelled to survive the in-flight poll", e.Status)
	}

	x.monitor(ctx) // flush
	select {
	case got := <-results:
		if got.Status != domain.ExecutionCancelled {
			t.Errorf("result status = %s, want cancelled", got.Status)
		}
	default:
		t.Fatal("cancelled execution should be flushed to results")
	}
	if stats := x.Stats(); stats.Cancelled != 1 {
		t.Errorf("Stats().Cancelled = %d, want 1", stats.Cancelled)
	}
}

func TestExecutor_CancelFinishedExecutionFails(t *testing.T) {
	ctx := context.Background()
	watcher := &fakeWatcher{receipt: TxReceipt{Status: TxFailed, Error: "boom"}}
	x, _, _ := newTestExecutor(5, watcher)

	e := pendingExecution()
	x.accept(ctx, e)
	x.monitor(ctx) // submit
	x.monitor(ctx) // fail

	if err := x.Cancel(e.ID); apperror.GetCode(err) != apperror.CodeInvalidInput {
		t.Errorf("Cancel(finished) code = %v, want INVALID_INPUT", apperror.GetCode(err))
	}
}

func TestExecutor_Retry(t *testing.T) {
	ctx := context.Background()
	x, _, _ := newTestExecutor(5, &fakeWatcher{})

	e := pendingExecution()
	x.accept(ctx, e)

	if err := x.Retry(e.ID); apperror.GetCode(err) != apperror.CodeExecutionNotRetryable {
		t.Errorf("Retry(pending) code = %v, want EXECUTION_NOT_RETRYABLE", apperror.GetCode(err))
	}

	e.Status = domain.ExecutionFailed
	e.ErrorMessage = "boom"
	if err := x.Retry(e.ID); err != nil {
		t.Fatalf("Retry() failed: %v", err)
	}
	if e.Status != domain.ExecutionPending || e.ErrorMessage != "" {
		t.Errorf("retried execution = %s/%q, want pending with cleared error", e.Status, e.ErrorMessage)
	}
}
