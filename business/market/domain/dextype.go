// Package domain contains the core domain types for the market context.
package domain

import "fmt"

// DexType identifies a supported decentralized exchange.
type DexType string

const (
	DexRaydium   DexType = "raydium"
	DexMeteora   DexType = "meteora"
	DexWhirlpool DexType = "whirlpool"
	DexPump      DexType = "pump"
)

// AllDexTypes lists every supported DEX.
func AllDexTypes() []DexType {
	return []DexType{DexRaydium, DexMeteora, DexWhirlpool, DexPump}
}

// ParseDexType converts a configuration name into a DexType.
func ParseDexType(name string) (DexType, error) {
	switch DexType(name) {
	case DexRaydium, DexMeteora, DexWhirlpool, DexPump:
		return DexType(name), nil
	}
	return "", fmt.Errorf("unknown dex type: %q", name)
}

// String implements fmt.Stringer.
func (d DexType) String() string {
	return string(d)
}
