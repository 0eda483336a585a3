// Package restdex implements the DexAdapter port over the HTTP APIs
// exposed by the supported Solana DEXes. All four APIs share the same
// shape, so a single adapter parameterized by DEX covers them.
package restdex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/circuitbreaker"
	"github.com/nlemus/solarb/internal/httpclient"
	"github.com/nlemus/solarb/internal/logger"
	"github.com/nlemus/solarb/internal/ratelimit"
)

const adapterVersion = "1.0.0"

// Config holds per-DEX adapter settings.
type Config struct {
	Dex            domain.DexType
	BaseURL        string
	WebSocketURL   string
	RequestTimeout time.Duration
}

// Adapter talks to one DEX HTTP API.
type Adapter struct {
	dex     domain.DexType
	wsURL   string
	client  httpclient.Client
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker[*httpclient.Response]
	tracer  trace.Tracer
	log     logger.LoggerInterface
}

// New creates an adapter for the given DEX.
func New(cfg Config, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("%s base URL", cfg.Dex)))
	}

	tracer := otel.Tracer("restdex." + string(cfg.Dex))

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName(string(cfg.Dex)),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		dex:     cfg.Dex,
		wsURL:   cfg.WebSocketURL,
		client:  client,
		limiter: limiter,
		breaker: circuitbreaker.New[*httpclient.Response](circuitbreaker.DefaultConfig(string(cfg.Dex))),
		tracer:  tracer,
		log:     log,
	}, nil
}

// DexType returns which DEX this adapter talks to.
func (a *Adapter) DexType() domain.DexType { return a.dex }

// Name returns a human-readable adapter name.
func (a *Adapter) Name() string { return string(a.dex) + " adapter" }

// Version returns the adapter version string.
func (a *Adapter) Version() string { return adapterVersion }

// IsConnected probes the DEX health endpoint.
func (a *Adapter) IsConnected(ctx context.Context) bool {
	err := a.get(ctx, healthEndpoint, nil, nil)
	return err == nil
}

// GetPools fetches all active liquidity pools.
func (a *Adapter) GetPools(ctx context.Context) ([]domain.Pool, error) {
	ctx, span := a.tracer.Start(ctx, "restdex.GetPools")
	defer span.End()

	var msgs []poolMessage
	if err := a.get(ctx, poolsEndpoint, nil, &msgs); err != nil {
		return nil, err
	}
	return a.toPools(ctx, msgs), nil
}

// GetPoolsByTokens fetches pools trading the given pair, in either order.
func (a *Adapter) GetPoolsByTokens(ctx context.Context, tokenA, tokenB domain.Token) ([]domain.Pool, error) {
	ctx, span := a.tracer.Start(ctx, "restdex.GetPoolsByTokens")
	defer span.End()

	pair := domain.NewTokenPair(tokenA, tokenB)
	params := map[string]string{
		"base_mint":  pair.Base.Mint,
		"quote_mint": pair.Quote.Mint,
	}

	var msgs []poolMessage
	if err := a.get(ctx, poolsEndpoint, params, &msgs); err != nil {
		return nil, err
	}
	return a.toPools(ctx, msgs), nil
}

// GetPoolState fetches an enriched snapshot of one pool.
func (a *Adapter) GetPoolState(ctx context.Context, poolAddress string) (domain.PoolState, error) {
	ctx, span := a.tracer.Start(ctx, "restdex.GetPoolState")
	defer span.End()

	var msg poolStateMessage
	if err := a.get(ctx, poolEndpoint+"/"+poolAddress, nil, &msg); err != nil {
		return domain.PoolState{}, err
	}

	pool, err := msg.Pool.toPool(a.dex)
	if err != nil {
		return domain.PoolState{}, a.invalidResponse(err)
	}

	state := domain.PoolState{Pool: pool}
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{msg.CurrentPrice, &state.CurrentPrice},
		{msg.PriceImpact, &state.PriceImpact},
		{msg.Volume24h, &state.Volume24h},
		{msg.TVL, &state.TVL},
		{msg.APY, &state.APY},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return domain.PoolState{}, a.invalidResponse(err)
		}
		*f.dst = d
	}
	return state, nil
}

// GetTokenPrice computes the spot price of token in quoteToken from the
// deepest pool trading the pair.
func (a *Adapter) GetTokenPrice(ctx context.Context, token, quoteToken domain.Token) (decimal.Decimal, error) {
	pool, err := a.deepestPool(ctx, token, quoteToken)
	if err != nil {
		return decimal.Zero, err
	}

	price, ok := pool.Price(token)
	if !ok {
		return decimal.Zero, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext(pool.Address))
	}
	return price, nil
}

// GetQuote builds a swap quote from current pool reserves. poolAddress
// is optional; when empty the deepest pool for the pair is used.
func (a *Adapter) GetQuote(ctx context.Context, input, output domain.Token, inputAmount decimal.Decimal, poolAddress string) (domain.PoolQuote, error) {
	ctx, span := a.tracer.Start(ctx, "restdex.GetQuote")
	defer span.End()

	if !inputAmount.IsPositive() {
		return domain.PoolQuote{}, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext("input amount must be positive"))
	}

	var pool domain.Pool
	if poolAddress != "" {
		state, err := a.GetPoolState(ctx, poolAddress)
		if err != nil {
			return domain.PoolQuote{}, err
		}
		pool = state.Pool
	} else {
		p, err := a.deepestPool(ctx, input, output)
		if err != nil {
			return domain.PoolQuote{}, err
		}
		pool = p
	}

	outputAmount, ok := pool.OutputAmount(inputAmount, input)
	if !ok {
		return domain.PoolQuote{}, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext(pool.Address))
	}
	priceImpact, _ := pool.PriceImpact(inputAmount, input)

	return domain.PoolQuote{
		Pool:          pool,
		InputToken:    input,
		OutputToken:   output,
		InputAmount:   inputAmount,
		OutputAmount:  outputAmount,
		PriceImpact:   priceImpact,
		FeeAmount:     inputAmount.Mul(pool.FeeRate),
		MinimumOutput: outputAmount,
	}, nil
}

// ExecuteSwap submits a swap and returns the transaction signature.
// slippageTolerance shrinks the quote output into the minimum accepted.
func (a *Adapter) ExecuteSwap(ctx context.Context, quote domain.PoolQuote, wallet string, slippageTolerance decimal.Decimal) (string, error) {
	ctx, span := a.tracer.Start(ctx, "restdex.ExecuteSwap")
	defer span.End()

	minOutput := quote.OutputAmount.Mul(decimal.NewFromInt(1).Sub(slippageTolerance))

	req := swapRequest{
		PoolAddress:       quote.Pool.Address,
		InputMint:         quote.InputToken.Mint,
		OutputMint:        quote.OutputToken.Mint,
		InputAmount:       quote.InputAmount.String(),
		MinimumOutput:     minOutput.String(),
		Wallet:            wallet,
		SlippageTolerance: slippageTolerance.String(),
	}

	var resp swapResponse
	if err := a.post(ctx, swapEndpoint, req, &resp); err != nil {
		return "", apperror.New(apperror.CodeTransactionFailed,
			apperror.WithContext(quote.Pool.Address), apperror.WithCause(err))
	}
	if resp.Signature == "" {
		return "", a.invalidResponse(errors.New("swap response missing signature"))
	}

	a.log.Info(ctx, "swap submitted", "dex", a.dex, "pool", quote.Pool.Address, "signature", resp.Signature)
	return resp.Signature, nil
}

// GetPoolMetrics fetches trading metrics for one pool.
func (a *Adapter) GetPoolMetrics(ctx context.Context, poolAddress string) (domain.PoolMetrics, error) {
	var msg poolMetricsMessage
	if err := a.get(ctx, poolEndpoint+"/"+poolAddress+metricsEndpoint, nil, &msg); err != nil {
		return domain.PoolMetrics{}, err
	}

	metrics := domain.PoolMetrics{
		PoolID:           msg.PoolID,
		Dex:              a.dex,
		UniqueTraders24h: msg.UniqueTraders24h,
		Timestamp:        time.Now().UTC(),
	}
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{msg.Volume24h, &metrics.Volume24h},
		{msg.Volume7d, &metrics.Volume7d},
		{msg.TVL, &metrics.TVL},
		{msg.FeeRevenue24h, &metrics.FeeRevenue24h},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return domain.PoolMetrics{}, a.invalidResponse(err)
		}
		*f.dst = d
	}
	return metrics, nil
}

// GetDexMetrics fetches DEX-wide metrics.
func (a *Adapter) GetDexMetrics(ctx context.Context) (domain.DexMetrics, error) {
	var msg dexMetricsMessage
	if err := a.get(ctx, metricsEndpoint, nil, &msg); err != nil {
		return domain.DexMetrics{}, err
	}

	volume, err := decimal.NewFromString(msg.TotalVolume24h)
	if err != nil {
		return domain.DexMetrics{}, a.invalidResponse(err)
	}
	tvl, err := decimal.NewFromString(msg.TotalTVL)
	if err != nil {
		return domain.DexMetrics{}, a.invalidResponse(err)
	}

	return domain.DexMetrics{
		Dex:            a.dex,
		TotalVolume24h: volume,
		TotalTVL:       tvl,
		TotalPools:     msg.TotalPools,
		ActivePools:    msg.ActivePools,
		TotalTrades24h: msg.TotalTrades24h,
	}, nil
}

// GetSupportedTokens lists tokens tradable on this DEX.
func (a *Adapter) GetSupportedTokens(ctx context.Context) ([]domain.Token, error) {
	var msgs []tokenMessage
	if err := a.get(ctx, tokensEndpoint, nil, &msgs); err != nil {
		return nil, err
	}

	tokens := make([]domain.Token, 0, len(msgs))
	for _, m := range msgs {
		token := domain.NewToken(m.Mint, m.Symbol, m.Name, m.Decimals)
		token.LogoURI = m.LogoURI
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// ValidateTransaction checks a serialized transaction before submission.
func (a *Adapter) ValidateTransaction(ctx context.Context, transactionData []byte) (bool, error) {
	var resp validateResponse
	if err := a.post(ctx, validateEndpoint, validateRequest{TransactionData: transactionData}, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// deepestPool returns the pair's pool with the largest reserve of the
// base token.
func (a *Adapter) deepestPool(ctx context.Context, tokenA, tokenB domain.Token) (domain.Pool, error) {
	pools, err := a.GetPoolsByTokens(ctx, tokenA, tokenB)
	if err != nil {
		return domain.Pool{}, err
	}
	if len(pools) == 0 {
		return domain.Pool{}, apperror.New(apperror.CodePoolNotFound,
			apperror.WithContext(tokenA.Symbol+"/"+tokenB.Symbol))
	}

	sort.Slice(pools, func(i, j int) bool {
		return baseReserve(pools[i], tokenA).GreaterThan(baseReserve(pools[j], tokenA))
	})
	return pools[0], nil
}

func baseReserve(p domain.Pool, base domain.Token) decimal.Decimal {
	if base.Mint == p.TokenB.Mint {
		return p.ReserveB
	}
	return p.ReserveA
}

// toPools converts wire pools, skipping malformed entries.
func (a *Adapter) toPools(ctx context.Context, msgs []poolMessage) []domain.Pool {
	pools := make([]domain.Pool, 0, len(msgs))
	for i := range msgs {
		pool, err := msgs[i].toPool(a.dex)
		if err != nil {
			a.log.Warn(ctx, "skipping malformed pool", "dex", a.dex, "pool", msgs[i].ID, "error", err)
			continue
		}
		pools = append(pools, pool)
	}
	return pools
}

// get performs a rate-limited GET through the circuit breaker.
func (a *Adapter) get(ctx context.Context, endpoint string, params map[string]string, result any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeDexRateLimited,
			apperror.WithContext(string(a.dex)), apperror.WithCause(err))
	}

	_, err := a.breaker.Execute(func() (*httpclient.Response, error) {
		req := a.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("dex", string(a.dex)),
				httpclient.NewLabel("endpoint", endpoint),
			),
			httpclient.WithResponseErrorHandler(dexErrorHandler),
		)
		for k, v := range params {
			req.SetQueryParam(k, v)
		}
		if result != nil {
			req.SetResult(result)
		}
		return req.Get(ctx, endpoint)
	})
	return a.classify(err)
}

// post performs a rate-limited POST through the circuit breaker.
func (a *Adapter) post(ctx context.Context, endpoint string, body, result any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeDexRateLimited,
			apperror.WithContext(string(a.dex)), apperror.WithCause(err))
	}

	_, err := a.breaker.Execute(func() (*httpclient.Response, error) {
		req := a.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("dex", string(a.dex)),
				httpclient.NewLabel("endpoint", endpoint),
			),
			httpclient.WithResponseErrorHandler(dexErrorHandler),
		).SetBody(body)
		if result != nil {
			req.SetResult(result)
		}
		return req.Post(ctx, endpoint)
	})
	return a.classify(err)
}

// classify maps transport and API failures onto the DEX error taxonomy.
func (a *Adapter) classify(err error) error {
	if err == nil {
		return nil
	}

	if apperror.IsAppError(err) {
		return err
	}

	code := apperror.CodeDexConnectionFailed
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = apperror.CodeDexTimeout
	default:
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case http.StatusTooManyRequests:
				code = apperror.CodeDexRateLimited
			case http.StatusNotFound:
				code = apperror.CodePoolNotFound
			default:
				code = apperror.CodeDexInvalidResponse
			}
		}
	}

	return apperror.New(code, apperror.WithContext(string(a.dex)), apperror.WithCause(err))
}

func (a *Adapter) invalidResponse(err error) error {
	return apperror.New(apperror.CodeDexInvalidResponse,
		apperror.WithContext(string(a.dex)), apperror.WithCause(err))
}
