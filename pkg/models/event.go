package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventKind indique la direction économique d'un événement financier
type EventKind int

const (
	// EventBuy est une entrée de tokens dans le wallet
	EventBuy EventKind = iota
	// EventSell est une sortie de tokens du wallet
	EventSell
)

// PhantomBuyPrefix préfixe le tx_hash des achats synthétiques générés
// pour les ventes orphelines
const PhantomBuyPrefix = "phantom_buy_"

// String retourne la représentation textuelle du type d'événement
func (k EventKind) String() string {
	switch k {
	case EventBuy:
		return "buy"
	case EventSell:
		return "sell"
	default:
		return "unknown"
	}
}

// MarshalJSON sérialise le type d'événement sous forme de chaîne
func (k EventKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON désérialise le type d'événement depuis sa forme chaîne
func (k *EventKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "buy":
		*k = EventBuy
	case "sell":
		*k = EventSell
	default:
		return fmt.Errorf("unknown event kind %q", s)
	}
	return nil
}

// FinancialEvent est l'événement canonique émis par le parser.
// Chaque swap bien formé produit exactement un achat et une vente
// partageant le même tx_hash et le même timestamp.
type FinancialEvent struct {
	Wallet           string          `json:"wallet"`
	TokenAddress     string          `json:"token_address"`
	TokenSymbol      string          `json:"token_symbol"`
	Kind             EventKind       `json:"kind"`
	Quantity         decimal.Decimal `json:"quantity"`
	USDPricePerToken decimal.Decimal `json:"usd_price_per_token"`
	USDValue         decimal.Decimal `json:"usd_value"`
	Timestamp        time.Time       `json:"timestamp"`
	TxHash           string          `json:"tx_hash"`

	// SwapInputUSDValue est, pour un achat, la valeur USD effectivement
	// dépensée sur l'autre côté du swap d'origine. C'est la base de coût
	// de référence pour les routes multi-hop.
	SwapInputUSDValue *decimal.Decimal `json:"swap_input_usd_value,omitempty"`
}

// IsPhantom indique si l'événement est un achat synthétique
func (e *FinancialEvent) IsPhantom() bool {
	return strings.HasPrefix(e.TxHash, PhantomBuyPrefix)
}

// CostBasisPerToken retourne la base de coût unitaire d'un achat:
// la valeur réellement dépensée divisée par la quantité d'origine si
// elle est connue, sinon le prix de marché validé
func (e *FinancialEvent) CostBasisPerToken() decimal.Decimal {
	if e.SwapInputUSDValue != nil && e.Quantity.IsPositive() {
		return e.SwapInputUSDValue.Div(e.Quantity)
	}
	return e.USDPricePerToken
}

// InvestedUSD retourne la valeur USD investie par cet achat
// (swap_input_usd_value si présent, sinon usd_value)
func (e *FinancialEvent) InvestedUSD() decimal.Decimal {
	if e.SwapInputUSDValue != nil {
		return *e.SwapInputUSDValue
	}
	return e.USDValue
}
