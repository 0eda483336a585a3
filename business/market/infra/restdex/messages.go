package restdex

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/market/domain"
)

// API endpoints shared by all supported DEX HTTP APIs.
const (
	healthEndpoint   = "/health"
	poolsEndpoint    = "/pools"
	poolEndpoint     = "/pool"
	swapEndpoint     = "/swap"
	metricsEndpoint  = "/metrics"
	tokensEndpoint   = "/tokens"
	validateEndpoint = "/validate"
)

// poolMessage is the wire representation of a liquidity pool.
type poolMessage struct {
	ID            string `json:"id"`
	BaseMint      string `json:"base_mint"`
	QuoteMint     string `json:"quote_mint"`
	BaseSymbol    string `json:"base_symbol"`
	QuoteSymbol   string `json:"quote_symbol"`
	BaseDecimals  uint8  `json:"base_decimals"`
	QuoteDecimals uint8  `json:"quote_decimals"`
	BaseReserve   string `json:"base_reserve"`
	QuoteReserve  string `json:"quote_reserve"`
	FeeRate       string `json:"fee_rate"`
	PoolAddress   string `json:"pool_address"`
	Authority     string `json:"authority"`
	ProgramID     string `json:"program_id"`
}

// toPool converts the wire pool into a domain pool.
func (m *poolMessage) toPool(dex domain.DexType) (domain.Pool, error) {
	reserveA, err := decimal.NewFromString(m.BaseReserve)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("invalid base_reserve %q: %w", m.BaseReserve, err)
	}
	reserveB, err := decimal.NewFromString(m.QuoteReserve)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("invalid quote_reserve %q: %w", m.QuoteReserve, err)
	}
	feeRate, err := decimal.NewFromString(m.FeeRate)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("invalid fee_rate %q: %w", m.FeeRate, err)
	}

	baseSymbol := m.BaseSymbol
	if baseSymbol == "" {
		baseSymbol = "BASE"
	}
	quoteSymbol := m.QuoteSymbol
	if quoteSymbol == "" {
		quoteSymbol = "QUOTE"
	}

	tokenA := domain.NewToken(m.BaseMint, baseSymbol, baseSymbol, m.BaseDecimals)
	tokenB := domain.NewToken(m.QuoteMint, quoteSymbol, quoteSymbol, m.QuoteDecimals)

	pool := domain.NewPool(m.ID, dex, tokenA, tokenB, m.PoolAddress)
	pool.Authority = m.Authority
	pool.ProgramID = m.ProgramID
	return pool.WithReserves(reserveA, reserveB).WithFeeRate(feeRate), nil
}

// poolStateMessage is the wire representation of an enriched pool snapshot.
type poolStateMessage struct {
	Pool         poolMessage `json:"pool"`
	CurrentPrice string      `json:"current_price"`
	PriceImpact  string      `json:"price_impact"`
	Volume24h    string      `json:"volume_24h"`
	TVL          string      `json:"tvl"`
	APY          string      `json:"apy"`
}

// swapRequest is the payload for swap submission.
type swapRequest struct {
	PoolAddress       string `json:"pool_address"`
	InputMint         string `json:"input_mint"`
	OutputMint        string `json:"output_mint"`
	InputAmount       string `json:"input_amount"`
	MinimumOutput     string `json:"minimum_output"`
	Wallet            string `json:"wallet"`
	SlippageTolerance string `json:"slippage_tolerance"`
}

// swapResponse carries the submitted transaction signature.
type swapResponse struct {
	Signature string `json:"signature"`
}

// poolMetricsMessage is the wire representation of per-pool metrics.
type poolMetricsMessage struct {
	PoolID           string `json:"pool_id"`
	Volume24h        string `json:"volume_24h"`
	Volume7d         string `json:"volume_7d"`
	TVL              string `json:"tvl"`
	FeeRevenue24h    string `json:"fee_revenue_24h"`
	UniqueTraders24h uint32 `json:"unique_traders_24h"`
}

// dexMetricsMessage is the wire representation of DEX-wide metrics.
type dexMetricsMessage struct {
	TotalVolume24h string `json:"total_volume_24h"`
	TotalTVL       string `json:"total_tvl"`
	TotalPools     uint64 `json:"total_pools"`
	ActivePools    uint64 `json:"active_pools"`
	TotalTrades24h uint64 `json:"total_trades_24h"`
}

// tokenMessage is the wire representation of a supported token.
type tokenMessage struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logo_uri"`
}

// validateRequest is the payload for transaction validation.
type validateRequest struct {
	TransactionData []byte `json:"transaction_data"`
}

// validateResponse carries the validation verdict.
type validateResponse struct {
	Valid bool `json:"valid"`
}

// apiError represents an error body returned by a DEX API.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("dex API error %d: %s", e.Code, e.Message)
}

// dexErrorHandler parses structured error responses.
func dexErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}

// subscribeMessage is the WebSocket subscription request.
type subscribeMessage struct {
	Method string `json:"method"`
	Pool   string `json:"pool"`
}

// poolUpdateMessage is a streamed pool change event.
type poolUpdateMessage struct {
	Kind        string    `json:"kind"`
	PoolAddress string    `json:"pool_address"`
	ReserveA    string    `json:"reserve_a"`
	ReserveB    string    `json:"reserve_b"`
	OldPrice    string    `json:"old_price"`
	NewPrice    string    `json:"new_price"`
	OldTVL      string    `json:"old_tvl"`
	NewTVL      string    `json:"new_tvl"`
	Timestamp   time.Time `json:"timestamp"`
}

// toUpdate converts the wire event into a domain event. Unparseable
// numeric fields default to zero so a single malformed field does not
// drop the whole event.
func (m *poolUpdateMessage) toUpdate(dex domain.DexType) domain.PoolUpdate {
	parse := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return domain.PoolUpdate{
		Kind:        domain.PoolUpdateKind(m.Kind),
		PoolAddress: m.PoolAddress,
		Dex:         dex,
		ReserveA:    parse(m.ReserveA),
		ReserveB:    parse(m.ReserveB),
		OldPrice:    parse(m.OldPrice),
		NewPrice:    parse(m.NewPrice),
		OldTVL:      parse(m.OldTVL),
		NewTVL:      parse(m.NewTVL),
		Timestamp:   ts,
	}
}
