package models

import (
	"github.com/shopspring/decimal"
)

// SwapSide représente un des deux côtés d'un swap (quote ou base)
type SwapSide struct {
	TokenAddress   string           `json:"token_address"`
	TokenSymbol    string           `json:"token_symbol"`
	UIChangeAmount decimal.Decimal  `json:"ui_change_amount"`
	Price          decimal.Decimal  `json:"price"`
	NearestPrice   *decimal.Decimal `json:"nearest_price,omitempty"`
}

// RawSwap représente une transaction de swap brute telle que fournie
// par le fournisseur de données de marché
type RawSwap struct {
	TxHash    string           `json:"tx_hash"`
	BlockTime int64            `json:"block_time"`
	QuoteSide SwapSide         `json:"quote_side"`
	BaseSide  SwapSide         `json:"base_side"`
	VolumeUSD *decimal.Decimal `json:"volume_usd,omitempty"`
}

// Sides retourne les deux côtés du swap dans l'ordre (quote, base)
func (s *RawSwap) Sides() (SwapSide, SwapSide) {
	return s.QuoteSide, s.BaseSide
}

// IsWellFormed vérifie qu'exactement un côté est une sortie (montant négatif)
// et l'autre une entrée (montant positif)
func (s *RawSwap) IsWellFormed() bool {
	q := s.QuoteSide.UIChangeAmount.Sign()
	b := s.BaseSide.UIChangeAmount.Sign()
	return (q < 0 && b > 0) || (q > 0 && b < 0)
}
