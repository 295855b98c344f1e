package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tytos-ai/analyser/pkg/models"
)

// aggregatePortfolio fusionne les résultats per-token d'un wallet.
// Le classificateur de devises d'échange est appliqué d'abord (seconde
// passe comportementale comprise), puis les agrégats qui en dépendent
// sont calculés: totaux investis/retournés, ROI, streaks, win-rate global.
func aggregatePortfolio(wallet string, tokenResults map[string]*models.TokenResult, currentPrices map[string]decimal.Decimal, classifier *ExchangeClassifier) *models.PortfolioResult {
	result := &models.PortfolioResult{
		Wallet:       wallet,
		TokenResults: tokenResults,
	}

	totalRealized := decimal.Zero
	totalUnrealized := decimal.Zero
	totalInvested := decimal.Zero
	totalReturned := decimal.Zero
	remainingCurrentValue := decimal.Zero
	holdWeighted := decimal.Zero
	totalWinning := 0
	totalLosing := 0
	totalTrades := 0

	// Itération en ordre stable d'adresse pour un résultat déterministe
	addresses := make([]string, 0, len(tokenResults))
	for addr := range tokenResults {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	allTrades := make([]models.MatchedTrade, 0)

	for _, addr := range addresses {
		tr := tokenResults[addr]
		tr.IsExchangeCurrency = classifier.Classify(tr)

		// Les P&L des devises d'échange restent sommés: leur contribution
		// quasi nulle garde les totaux exacts
		totalRealized = totalRealized.Add(tr.RealizedPnLUSD)
		totalUnrealized = totalUnrealized.Add(tr.UnrealizedPnLUSD)

		totalTrades += tr.TotalTrades
		totalWinning += tr.WinningTrades
		totalLosing += tr.LosingTrades
		result.EventsProcessed += tr.EventsProcessed
		result.IncompleteTradesCount += len(tr.UnmatchedSells)

		if tr.TotalTrades > 0 {
			holdWeighted = holdWeighted.Add(tr.HoldTimeStats.AvgMinutes.Mul(decimal.NewFromInt(int64(tr.TotalTrades))))
		}

		allTrades = append(allTrades, tr.MatchedTrades...)

		if tr.IsExchangeCurrency {
			continue
		}

		result.TokensAnalyzed++
		totalInvested = totalInvested.Add(tr.InvestedUSD)
		totalReturned = totalReturned.Add(tr.ReturnedUSD)

		if price, ok := currentPrices[addr]; ok && price.IsPositive() {
			remainingCurrentValue = remainingCurrentValue.Add(price.Mul(tr.RemainingPosition.Quantity))
		}
	}

	result.TotalRealizedPnLUSD = totalRealized
	result.TotalUnrealizedPnLUSD = totalUnrealized
	result.TotalPnLUSD = totalRealized.Add(totalUnrealized)
	result.TotalInvestedUSD = totalInvested
	result.TotalReturnedUSD = totalReturned
	result.TotalTrades = totalTrades

	if totalInvested.IsPositive() {
		roi := totalReturned.Add(remainingCurrentValue).Sub(totalInvested).
			Div(totalInvested).Mul(hundred)
		result.ProfitPercentage = &roi
	}

	if decided := totalWinning + totalLosing; decided > 0 {
		result.OverallWinRatePercentage = decimal.NewFromInt(int64(totalWinning)).
			Div(decimal.NewFromInt(int64(decided))).Mul(hundred)
	}

	if totalTrades > 0 {
		result.AvgHoldTimeMinutes = holdWeighted.Div(decimal.NewFromInt(int64(totalTrades)))
	}

	computeStreaks(result, allTrades)

	return result
}

// computeStreaks parcourt la séquence globale des trades appariés, triée
// chronologiquement, et compte les séries de P&L positifs et négatifs.
// Un P&L nul casse la série en cours sans en démarrer une autre.
func computeStreaks(result *models.PortfolioResult, trades []models.MatchedTrade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := &trades[i], &trades[j]
		if !a.Sell.Timestamp.Equal(b.Sell.Timestamp) {
			return a.Sell.Timestamp.Before(b.Sell.Timestamp)
		}
		if a.Sell.TxHash != b.Sell.TxHash {
			return a.Sell.TxHash < b.Sell.TxHash
		}
		return a.Buy.TxHash < b.Buy.TxHash
	})

	winStreak, loseStreak := 0, 0
	for i := range trades {
		switch trades[i].RealizedPnLUSD.Sign() {
		case 1:
			winStreak++
			loseStreak = 0
			if winStreak > result.LongestWinningStreak {
				result.LongestWinningStreak = winStreak
			}
		case -1:
			loseStreak++
			winStreak = 0
			if loseStreak > result.LongestLosingStreak {
				result.LongestLosingStreak = loseStreak
			}
		default:
			winStreak, loseStreak = 0, 0
		}
	}
	result.CurrentWinningStreak = winStreak
	result.CurrentLosingStreak = loseStreak
}
