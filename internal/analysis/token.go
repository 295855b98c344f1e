package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/tytos-ai/analyser/pkg/models"
)

var (
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)

// analyzeToken exécute l'appariement FIFO d'un token puis agrège ses
// trades en TokenResult: P&L réalisé, position restante, P&L latent,
// win-rate et statistiques de détention. currentPrice vaut zéro lorsque
// le prix courant du token est inconnu.
func analyzeToken(events []models.FinancialEvent, currentPrice decimal.Decimal, cfg Config) (*models.TokenResult, error) {
	outcome, err := matchToken(events, cfg)
	if err != nil {
		return nil, err
	}

	result := &models.TokenResult{
		MatchedTrades:  outcome.matched,
		UnmatchedSells: outcome.unmatched,
	}
	if len(events) > 0 {
		result.TokenAddress = events[0].TokenAddress
		result.TokenSymbol = events[0].TokenSymbol
	}
	result.EventsProcessed = len(events)

	realized := decimal.Zero
	holdSum := decimal.Zero
	var holdMin, holdMax *decimal.Decimal
	for i := range outcome.matched {
		t := &outcome.matched[i]
		realized = realized.Add(t.RealizedPnLUSD)

		switch t.RealizedPnLUSD.Sign() {
		case 1:
			result.WinningTrades++
		case -1:
			result.LosingTrades++
		}

		holdMinutes := decimal.NewFromInt(t.HoldTimeSeconds).Div(sixty)
		holdSum = holdSum.Add(holdMinutes)
		if holdMin == nil || holdMinutes.LessThan(*holdMin) {
			holdMin = &holdMinutes
		}
		if holdMax == nil || holdMinutes.GreaterThan(*holdMax) {
			holdMax = &holdMinutes
		}
	}

	result.TotalTrades = len(outcome.matched)
	result.RealizedPnLUSD = realized

	if result.TotalTrades > 0 {
		result.WinRatePercentage = decimal.NewFromInt(int64(result.WinningTrades)).
			Div(decimal.NewFromInt(int64(result.TotalTrades))).Mul(hundred)
		result.HoldTimeStats = models.HoldTimeStats{
			AvgMinutes: holdSum.Div(decimal.NewFromInt(int64(result.TotalTrades))),
			MinMinutes: *holdMin,
			MaxMinutes: *holdMax,
		}
	}

	// Position restante: somme des lots d'achat non consommés, valorisée
	// à la base de coût corrigée multi-hop
	remainingQty := decimal.Zero
	remainingCost := decimal.Zero
	for _, l := range outcome.remainingLots {
		remainingQty = remainingQty.Add(l.remaining)
		if l.remainingInput != nil {
			remainingCost = remainingCost.Add(*l.remainingInput)
		} else {
			remainingCost = remainingCost.Add(l.remainingValue)
		}
	}
	result.RemainingPosition = models.RemainingPosition{
		Quantity:          remainingQty,
		TotalCostBasisUSD: remainingCost,
	}
	if remainingQty.IsPositive() {
		result.RemainingPosition.AvgCostBasisUSD = remainingCost.Div(remainingQty)
		if currentPrice.IsPositive() {
			result.UnrealizedPnLUSD = currentPrice.Sub(result.RemainingPosition.AvgCostBasisUSD).Mul(remainingQty)
		}
	}

	result.TotalPnLUSD = result.RealizedPnLUSD.Add(result.UnrealizedPnLUSD)

	// Totaux investis/retournés du token, achats fantômes exclus
	invested := decimal.Zero
	returned := decimal.Zero
	for i := range events {
		ev := &events[i]
		switch ev.Kind {
		case models.EventBuy:
			if !ev.IsPhantom() {
				invested = invested.Add(ev.InvestedUSD())
			}
		case models.EventSell:
			returned = returned.Add(ev.USDValue)
		}
	}
	result.InvestedUSD = invested
	result.ReturnedUSD = returned

	return result, nil
}
