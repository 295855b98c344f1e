package analysis

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tytos-ai/analyser/pkg/models"
)

// ErrInvariantViolation est fatal: un invariant post-appariement est rompu
// et aucun résultat partiel n'est produit
var ErrInvariantViolation = fmt.Errorf("fifo invariant violation")

// lot est un achat (ou le reste non consommé d'un achat) traité comme
// unité appariable. La base de coût unitaire est figée à la création du
// lot sur la quantité d'origine, pour que les appariements partiels
// successifs partagent la même base.
type lot struct {
	event             models.FinancialEvent
	remaining         decimal.Decimal
	remainingValue    decimal.Decimal
	remainingInput    *decimal.Decimal
	costBasisPerToken decimal.Decimal
}

func newLot(ev models.FinancialEvent) *lot {
	l := &lot{
		event:             ev,
		remaining:         ev.Quantity,
		remainingValue:    ev.USDValue,
		costBasisPerToken: ev.CostBasisPerToken(),
	}
	if ev.SwapInputUSDValue != nil {
		input := *ev.SwapInputUSDValue
		l.remainingInput = &input
	}
	return l
}

// consume prélève m unités du lot et retourne la tranche d'achat
// correspondante. La valeur USD et la valeur d'entrée de swap sont
// réduites proportionnellement pour préserver l'arithmétique de base
// de coût sur le reste du lot.
func (l *lot) consume(m decimal.Decimal) models.FinancialEvent {
	slice := l.event
	slice.Quantity = m

	consumedValue := l.remainingValue.Mul(m).Div(l.remaining)
	slice.USDValue = consumedValue
	l.remainingValue = l.remainingValue.Sub(consumedValue)

	if l.remainingInput != nil {
		consumedInput := l.remainingInput.Mul(m).Div(l.remaining)
		slice.SwapInputUSDValue = &consumedInput
		rest := l.remainingInput.Sub(consumedInput)
		l.remainingInput = &rest
	}

	l.remaining = l.remaining.Sub(m)
	return slice
}

// matchOutcome est le résultat brut de l'appariement FIFO d'un token
type matchOutcome struct {
	matched       []models.MatchedTrade
	unmatched     []models.UnmatchedSell
	remainingLots []*lot
	phantomLots   []*lot
}

// matchToken apparie chronologiquement les ventes d'un token contre ses
// achats. Les événements doivent être pré-triés par (timestamp, tx_hash).
// Une vente sans achat préalable reçoit un achat fantôme daté juste avant
// elle, au prix de vente, pour un P&L réalisé exactement nul.
func matchToken(events []models.FinancialEvent, cfg Config) (*matchOutcome, error) {
	buys := make([]*lot, 0, len(events)/2)
	sells := make([]models.FinancialEvent, 0, len(events)/2)
	for _, ev := range events {
		switch ev.Kind {
		case models.EventBuy:
			buys = append(buys, newLot(ev))
		case models.EventSell:
			sells = append(sells, ev)
		}
	}

	out := &matchOutcome{
		matched:   make([]models.MatchedTrade, 0, len(sells)),
		unmatched: make([]models.UnmatchedSell, 0),
	}

	buyIdx := 0
	for _, sell := range sells {
		remaining := sell.Quantity
		sellValueLeft := sell.USDValue

		for remaining.IsPositive() {
			// Ignorer les lots vides et les lots postérieurs à la vente:
			// seuls les achats déjà exécutés peuvent couvrir une vente
			for buyIdx < len(buys) && !buys[buyIdx].remaining.IsPositive() {
				buyIdx++
			}
			if buyIdx >= len(buys) || buys[buyIdx].event.Timestamp.After(sell.Timestamp) {
				phantom, trade := synthesizePhantom(sell, remaining, sellValueLeft, cfg)
				out.phantomLots = append(out.phantomLots, phantom)
				out.matched = append(out.matched, trade)
				out.unmatched = append(out.unmatched, models.UnmatchedSell{
					Sell:              sell,
					UnmatchedQuantity: remaining,
					PhantomBuyPrice:   sell.USDPricePerToken,
				})
				remaining = decimal.Zero
				break
			}

			b := buys[buyIdx]
			m := remaining
			if b.remaining.LessThan(m) {
				m = b.remaining
			}

			costBasis := b.costBasisPerToken
			realized := sell.USDPricePerToken.Sub(costBasis).Mul(m)
			holdTime := sell.Timestamp.Unix() - b.event.Timestamp.Unix()
			if holdTime < 0 {
				return nil, fmt.Errorf("%w: negative hold time on tx %s", ErrInvariantViolation, sell.TxHash)
			}

			buySlice := b.consume(m)

			sellSlice := sell
			sellSlice.Quantity = m
			consumedSellValue := sellValueLeft.Mul(m).Div(remaining)
			sellSlice.USDValue = consumedSellValue
			sellValueLeft = sellValueLeft.Sub(consumedSellValue)

			out.matched = append(out.matched, models.MatchedTrade{
				TokenAddress:    sell.TokenAddress,
				TokenSymbol:     sell.TokenSymbol,
				Buy:             buySlice,
				Sell:            sellSlice,
				QuantityMatched: m,
				RealizedPnLUSD:  realized,
				HoldTimeSeconds: holdTime,
			})

			remaining = remaining.Sub(m)
			if remaining.IsNegative() || b.remaining.IsNegative() {
				return nil, fmt.Errorf("%w: negative remaining quantity on tx %s", ErrInvariantViolation, sell.TxHash)
			}
		}
	}

	for _, b := range buys {
		if b.remaining.IsNegative() {
			return nil, fmt.Errorf("%w: negative remaining lot %s", ErrInvariantViolation, b.event.TxHash)
		}
		if b.remaining.IsPositive() {
			out.remainingLots = append(out.remainingLots, b)
		}
	}

	return out, nil
}

// synthesizePhantom fabrique l'achat fantôme d'une vente orpheline et la
// paire appariée correspondante. Le fantôme porte le prix de la vente,
// son P&L réalisé est donc exactement nul, et il est exclu des totaux
// investis par son préfixe de tx_hash.
func synthesizePhantom(sell models.FinancialEvent, qty, valueLeft decimal.Decimal, cfg Config) (*lot, models.MatchedTrade) {
	offset := time.Duration(cfg.PhantomBuyOffsetSeconds) * time.Second

	phantom := models.FinancialEvent{
		Wallet:           sell.Wallet,
		TokenAddress:     sell.TokenAddress,
		TokenSymbol:      sell.TokenSymbol,
		Kind:             models.EventBuy,
		Quantity:         qty,
		USDPricePerToken: sell.USDPricePerToken,
		USDValue:         qty.Mul(sell.USDPricePerToken),
		Timestamp:        sell.Timestamp.Add(-offset),
		TxHash:           models.PhantomBuyPrefix + sell.TxHash,
	}

	sellSlice := sell
	sellSlice.Quantity = qty
	sellSlice.USDValue = valueLeft

	trade := models.MatchedTrade{
		TokenAddress:    sell.TokenAddress,
		TokenSymbol:     sell.TokenSymbol,
		Buy:             phantom,
		Sell:            sellSlice,
		QuantityMatched: qty,
		RealizedPnLUSD:  decimal.Zero,
		HoldTimeSeconds: int64(offset / time.Second),
	}

	l := newLot(phantom)
	l.remaining = decimal.Zero
	l.remainingValue = decimal.Zero

	return l, trade
}
