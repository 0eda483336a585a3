// Package chainrpc submits swaps through DEX adapters and tracks their
// signatures against the Solana JSON-RPC endpoint.
package chainrpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/app"
	"github.com/nlemus/solarb/business/arbitrage/domain"
	marketApp "github.com/nlemus/solarb/business/market/app"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/httpclient"
	"github.com/nlemus/solarb/internal/logger"
)

// Base transaction fee on Solana, in lamports per signature.
var (
	baseFeeLamports = decimal.NewFromInt(5000)
	solPerLamport   = decimal.New(1, -9)
)

// Config holds watcher settings.
type Config struct {
	RPCURL            string
	Wallet            string
	SlippageTolerance decimal.Decimal
	RequestTimeout    time.Duration
}

// Watcher is the live TxWatcher: it swaps via the buy-side DEX adapter
// and polls getSignatureStatuses for confirmation.
type Watcher struct {
	config Config
	market *marketApp.MarketService
	client httpclient.Client
	log    logger.LoggerInterface
}

// New creates a live watcher.
func New(config Config, market *marketApp.MarketService, log logger.LoggerInterface) (*Watcher, error) {
	if config.RPCURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("solana rpc url"))
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("solana-rpc"),
		httpclient.WithBaseURL(config.RPCURL),
		httpclient.WithRequestTimeout(config.RequestTimeout),
		httpclient.WithHeaders(map[string]string{"Content-Type": "application/json"}),
	)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config: config,
		market: market,
		client: client,
		log:    log,
	}, nil
}

// Submit executes the first hop of the route on its DEX and returns
// the transaction signature.
func (w *Watcher) Submit(ctx context.Context, e *domain.Execution) (string, error) {
	if len(e.Route.Pools) == 0 {
		return "", apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("execution route has no pools"))
	}

	pool := e.Route.Pools[0]
	adapter := w.market.Adapter(pool.Dex)
	if adapter == nil {
		return "", apperror.New(apperror.CodeDexNotSupported,
			apperror.WithContext(string(pool.Dex)))
	}

	input := e.Route.InputToken
	quote, err := adapter.GetQuote(ctx, input, pool.OtherToken(input), e.Route.InputAmount, pool.Address)
	if err != nil {
		return "", err
	}

	return adapter.ExecuteSwap(ctx, quote, w.config.Wallet, w.config.SlippageTolerance)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result struct {
		Value []*signatureStatus `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type signatureStatus struct {
	ConfirmationStatus string          `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}

// Status polls getSignatureStatuses for one signature.
func (w *Watcher) Status(ctx context.Context, signature string) (app.TxReceipt, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getSignatureStatuses",
		Params: []any{
			[]string{signature},
			map[string]bool{"searchTransactionHistory": true},
		},
	}

	var result rpcResponse
	resp, err := w.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("method", req.Method)),
	).SetBody(req).SetResult(&result).Post(ctx, "")
	if err != nil {
		return app.TxReceipt{}, apperror.New(apperror.CodeRPCError,
			apperror.WithContext(req.Method), apperror.WithCause(err))
	}
	if resp.IsError() || result.Error != nil {
		msg := resp.Status
		if result.Error != nil {
			msg = result.Error.Message
		}
		return app.TxReceipt{}, apperror.New(apperror.CodeRPCError,
			apperror.WithContext(msg))
	}

	if len(result.Result.Value) == 0 || result.Result.Value[0] == nil {
		return app.TxReceipt{Status: app.TxPending}, nil
	}

	status := result.Result.Value[0]
	if len(status.Err) > 0 && string(status.Err) != "null" {
		return app.TxReceipt{
			Status: app.TxFailed,
			Error:  string(status.Err),
		}, nil
	}

	switch status.ConfirmationStatus {
	case "confirmed", "finalized":
		return app.TxReceipt{
			Status:   app.TxConfirmed,
			GasUsed:  baseFeeLamports,
			GasPrice: solPerLamport,
		}, nil
	}
	return app.TxReceipt{Status: app.TxPending}, nil
}
