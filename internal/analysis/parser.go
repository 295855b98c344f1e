package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tytos-ai/analyser/pkg/models"
)

// Parser convertit les swaps bruts en un flux canonique d'événements
// financiers achat/vente, trié par (timestamp, tx_hash)
type Parser struct {
	cfg    Config
	logger *logrus.Logger
}

// NewParser crée un nouveau parser d'événements
func NewParser(cfg Config, logger *logrus.Logger) *Parser {
	return &Parser{cfg: cfg.withDefaults(), logger: logger}
}

// ErrMalformedSwap est retourné lorsqu'un swap de même signe est rencontré
// et que ignore_same_sign_swaps est désactivé
var ErrMalformedSwap = fmt.Errorf("malformed swap: both sides share the same sign")

// Parse transforme les swaps d'un wallet en événements financiers.
// Chaque swap bien formé émet exactement une vente (côté sortant) et un
// achat (côté entrant) partageant tx_hash et timestamp. Les swaps
// malformés sont journalisés et ignorés, sauf configuration contraire.
func (p *Parser) Parse(wallet string, swaps []models.RawSwap) ([]models.FinancialEvent, []models.Warning, error) {
	events := make([]models.FinancialEvent, 0, len(swaps)*2)
	warnings := make([]models.Warning, 0)

	for i := range swaps {
		swap := &swaps[i]

		if !swap.IsWellFormed() {
			if !p.cfg.IgnoreSameSignSwaps {
				return nil, nil, fmt.Errorf("%w (tx %s)", ErrMalformedSwap, swap.TxHash)
			}
			p.logger.WithFields(logrus.Fields{
				"wallet":  wallet,
				"tx_hash": swap.TxHash,
			}).Warn("Skipping same-sign swap")
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningMalformedSwap,
				TxHash:  swap.TxHash,
				Message: "both sides share the same sign, swap skipped",
			})
			continue
		}

		outflow, inflow := swap.QuoteSide, swap.BaseSide
		if outflow.UIChangeAmount.Sign() > 0 {
			outflow, inflow = inflow, outflow
		}

		ts := time.Unix(swap.BlockTime, 0).UTC()

		sellPrice, w := p.validatePrice(&outflow, swap.TxHash)
		if w != nil {
			warnings = append(warnings, *w)
		}
		buyPrice, w := p.validatePrice(&inflow, swap.TxHash)
		if w != nil {
			warnings = append(warnings, *w)
		}

		sellQty := outflow.UIChangeAmount.Abs()
		sell := models.FinancialEvent{
			Wallet:           wallet,
			TokenAddress:     outflow.TokenAddress,
			TokenSymbol:      outflow.TokenSymbol,
			Kind:             models.EventSell,
			Quantity:         sellQty,
			USDPricePerToken: sellPrice,
			USDValue:         sellQty.Mul(sellPrice),
			Timestamp:        ts,
			TxHash:           swap.TxHash,
		}

		buyQty := inflow.UIChangeAmount.Abs()
		buy := models.FinancialEvent{
			Wallet:           wallet,
			TokenAddress:     inflow.TokenAddress,
			TokenSymbol:      inflow.TokenSymbol,
			Kind:             models.EventBuy,
			Quantity:         buyQty,
			USDPricePerToken: buyPrice,
			USDValue:         buyQty.Mul(buyPrice),
			Timestamp:        ts,
			TxHash:           swap.TxHash,
		}

		// La contre-partie de l'achat est dans une autre devise: la valeur
		// de la vente est le montant réellement dépensé pour ce lot, même
		// si la route a traversé des hops intermédiaires
		if outflow.TokenAddress != inflow.TokenAddress {
			spent := sell.USDValue
			buy.SwapInputUSDValue = &spent
		}

		events = append(events, sell, buy)
	}

	sortEvents(events)

	return events, warnings, nil
}

// validatePrice applique les règles de validation de prix du côté d'un swap:
// rejet des prix non positifs avec repli sur nearest_price, et préférence
// pour nearest_price au-delà du seuil de déviation
func (p *Parser) validatePrice(side *models.SwapSide, txHash string) (decimal.Decimal, *models.Warning) {
	price := side.Price
	nearest := decimal.Zero
	hasNearest := false
	if side.NearestPrice != nil && side.NearestPrice.IsPositive() {
		nearest = *side.NearestPrice
		hasNearest = true
	}

	if !price.IsPositive() {
		if hasNearest {
			return nearest, &models.Warning{
				Kind:         models.WarningPriceAnomaly,
				TxHash:       txHash,
				TokenAddress: side.TokenAddress,
				Message:      "non-positive price, fell back to nearest_price",
			}
		}
		// Prix nul autorisé pour les tokens sans valeur
		return decimal.Zero, nil
	}

	if hasNearest {
		max := price
		if nearest.GreaterThan(max) {
			max = nearest
		}
		deviation := price.Sub(nearest).Abs().Div(max)
		if deviation.GreaterThan(p.cfg.PriceDeviationThreshold) {
			p.logger.WithFields(logrus.Fields{
				"tx_hash":       txHash,
				"token_address": side.TokenAddress,
				"price":         price.String(),
				"nearest_price": nearest.String(),
			}).Warn("Price deviation above threshold, preferring nearest_price")
			return nearest, &models.Warning{
				Kind:         models.WarningPriceAnomaly,
				TxHash:       txHash,
				TokenAddress: side.TokenAddress,
				Message:      fmt.Sprintf("price deviates from nearest_price by %s, preferring nearest_price", deviation.StringFixed(4)),
			}
		}
	}

	return price, nil
}

// sortEvents trie les événements par (timestamp, tx_hash) croissants, les
// achats avant les ventes sur égalité parfaite. L'ordre est stable entre
// exécutions, c'est la garantie de déterminisme du pipeline.
func sortEvents(events []models.FinancialEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.TxHash != b.TxHash {
			return a.TxHash < b.TxHash
		}
		return a.Kind < b.Kind
	})
}
