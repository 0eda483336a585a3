package chainrpc

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nlemus/solarb/business/arbitrage/app"
	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/internal/logger"
)

// SimulatedWatcher fakes submission and confirmation for dry runs.
// Transactions confirm after a short delay; a small fraction fail to
// exercise the failure path.
type SimulatedWatcher struct {
	confirmDelay time.Duration
	failureRate  float64

	mu        sync.Mutex
	submitted map[string]time.Time

	log logger.LoggerInterface
}

// NewSimulated creates a dry-run watcher.
func NewSimulated(log logger.LoggerInterface) *SimulatedWatcher {
	return &SimulatedWatcher{
		confirmDelay: 2 * time.Second,
		failureRate:  0.05,
		submitted:    make(map[string]time.Time),
		log:          log,
	}
}

// Submit fabricates a signature without touching any DEX.
func (w *SimulatedWatcher) Submit(ctx context.Context, e *domain.Execution) (string, error) {
	signature := "SIM" + uuid.NewString()

	w.mu.Lock()
	w.submitted[signature] = time.Now()
	w.mu.Unlock()

	w.log.Info(ctx, "simulated swap submitted", "execution", e.ID, "signature", signature)
	return signature, nil
}

// Status confirms a signature once its delay has elapsed.
func (w *SimulatedWatcher) Status(ctx context.Context, signature string) (app.TxReceipt, error) {
	w.mu.Lock()
	submittedAt, ok := w.submitted[signature]
	w.mu.Unlock()

	if !ok || time.Since(submittedAt) < w.confirmDelay {
		return app.TxReceipt{Status: app.TxPending}, nil
	}

	w.mu.Lock()
	delete(w.submitted, signature)
	w.mu.Unlock()

	if rand.Float64() < w.failureRate {
		return app.TxReceipt{
			Status: app.TxFailed,
			Error:  "simulated slippage failure",
		}, nil
	}

	return app.TxReceipt{
		Status:   app.TxConfirmed,
		GasUsed:  baseFeeLamports,
		GasPrice: solPerLamport,
	}, nil
}
