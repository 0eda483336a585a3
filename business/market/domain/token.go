package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Token represents an SPL token identified by its mint address.
type Token struct {
	Mint     string
	Symbol   string
	Name     string
	Decimals uint8
	LogoURI  string
}

// NewToken creates a token with the required fields.
func NewToken(mint, symbol, name string, decimals uint8) Token {
	return Token{
		Mint:     mint,
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	}
}

// Equal reports whether two tokens share the same mint.
func (t Token) Equal(other Token) bool {
	return t.Mint == other.Mint
}

// String implements fmt.Stringer.
func (t Token) String() string {
	return fmt.Sprintf("%s (%s)", t.Symbol, t.Mint)
}

// TokenPair is an unordered token pair. Tokens are stored in canonical
// order by mint address so (A,B) and (B,A) map to the same pair.
type TokenPair struct {
	Base  Token
	Quote Token
}

// NewTokenPair builds the canonical pair for two tokens.
func NewTokenPair(a, b Token) TokenPair {
	if a.Mint <= b.Mint {
		return TokenPair{Base: a, Quote: b}
	}
	return TokenPair{Base: b, Quote: a}
}

// Key returns a map key identifying the pair.
func (p TokenPair) Key() string {
	return p.Base.Mint + "/" + p.Quote.Mint
}

// TokenPrice is a token price quote from a DEX.
type TokenPrice struct {
	Token     Token
	Quote     Token
	Price     decimal.Decimal
	Source    DexType
	Timestamp time.Time
}
