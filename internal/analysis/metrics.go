package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/tytos-ai/analyser/pkg/models"
)

var (
	minutesPerDay = decimal.NewFromInt(1440)
	mixedMajority = decimal.NewFromFloat(0.6)
)

// computeMetrics dérive les métriques copy-trading d'un portfolio:
// style de trading, métriques de risque, score de qualité et
// distributions de catégorisation des trades
func computeMetrics(result *models.PortfolioResult, cfg Config) *models.DerivedMetrics {
	metrics := &models.DerivedMetrics{
		TradingStyle:     classifyStyle(result),
		PnLDistribution:  make(map[models.PnLCategory]int),
		HoldDistribution: make(map[models.HoldCategory]int),
	}

	sumLosses := decimal.Zero
	for _, tr := range result.TokenResults {
		for i := range tr.MatchedTrades {
			t := &tr.MatchedTrades[i]
			metrics.PnLDistribution[categorizePnL(t)]++
			metrics.HoldDistribution[categorizeHold(t.HoldTimeSeconds)]++
			if t.RealizedPnLUSD.IsNegative() {
				sumLosses = sumLosses.Add(t.RealizedPnLUSD.Abs())
			}
		}
	}

	metrics.Risk = computeRisk(result, sumLosses)

	if cfg.QualityScoreEnabled {
		score := qualityScore(result)
		metrics.QualityScore = &score
	}

	return metrics
}

// classifyStyle détermine le style de trading à partir de la durée de
// détention moyenne du portfolio. Une distribution hétérogène des durées
// per-trade donne Mixed avec le sous-type prédominant.
func classifyStyle(result *models.PortfolioResult) models.TradingStyle {
	styleOf := func(minutes decimal.Decimal) models.StyleKind {
		switch {
		case minutes.LessThan(sixty):
			return models.StyleScalper
		case minutes.LessThan(minutesPerDay):
			return models.StyleSwingTrader
		default:
			return models.StyleLongTerm
		}
	}

	counts := map[models.StyleKind]int{}
	total := 0
	for _, tr := range result.TokenResults {
		for i := range tr.MatchedTrades {
			minutes := decimal.NewFromInt(tr.MatchedTrades[i].HoldTimeSeconds).Div(sixty)
			counts[styleOf(minutes)]++
			total++
		}
	}

	if total == 0 {
		return models.TradingStyle{Kind: styleOf(result.AvgHoldTimeMinutes)}
	}

	// Prédominant = le sous-type le plus fréquent; homogène si au moins
	// 60% des trades lui appartiennent
	predominant := models.StyleScalper
	best := -1
	for _, kind := range []models.StyleKind{models.StyleScalper, models.StyleSwingTrader, models.StyleLongTerm} {
		if counts[kind] > best {
			best = counts[kind]
			predominant = kind
		}
	}

	share := decimal.NewFromInt(int64(best)).Div(decimal.NewFromInt(int64(total)))
	if share.GreaterThanOrEqual(mixedMajority) {
		return models.TradingStyle{Kind: predominant}
	}
	return models.TradingStyle{Kind: models.StyleMixed, Predominant: &predominant}
}

// computeRisk calcule les métriques de risque du portfolio. Le rendement
// ajusté au risque rapporte le P&L total à la somme des pertes réalisées,
// utilisée comme proxy de drawdown; il vaut zéro sans perte.
func computeRisk(result *models.PortfolioResult, sumLosses decimal.Decimal) models.RiskMetrics {
	risk := models.RiskMetrics{
		MaxConsecutiveLosses: result.LongestLosingStreak,
		MaxWinStreak:         result.LongestWinningStreak,
	}

	if result.TotalInvestedUSD.IsPositive() {
		maxPosition := decimal.Zero
		hhi := decimal.Zero
		for _, tr := range result.TokenResults {
			if tr.IsExchangeCurrency || !tr.InvestedUSD.IsPositive() {
				continue
			}
			share := tr.InvestedUSD.Div(result.TotalInvestedUSD)
			if share.GreaterThan(maxPosition) {
				maxPosition = share
			}
			hhi = hhi.Add(share.Mul(share))
		}
		risk.MaxPositionPercentage = maxPosition.Mul(hundred)
		// Score de diversification type Herfindahl inversé, 0-100
		risk.DiversificationScore = decimal.NewFromInt(1).Sub(hhi).Mul(hundred)
	}

	totalLosing := 0
	for _, tr := range result.TokenResults {
		totalLosing += tr.LosingTrades
	}
	if totalLosing > 0 {
		risk.AvgLossPerTrade = sumLosses.Div(decimal.NewFromInt(int64(totalLosing)))
	}
	if sumLosses.IsPositive() {
		risk.RiskAdjustedReturn = result.TotalPnLUSD.Div(sumLosses)
	}

	return risk
}

// qualityScore calcule le score de qualité 0-100 du wallet
func qualityScore(result *models.PortfolioResult) int {
	score := 50

	switch {
	case result.TotalTrades >= 10:
		score += 20
	case result.TotalTrades >= 5:
		score += 10
	}

	if result.TotalPnLUSD.IsPositive() {
		score += 15
	}

	winRate := result.OverallWinRatePercentage
	switch {
	case winRate.GreaterThan(decimal.NewFromInt(60)):
		score += 15
	case winRate.GreaterThan(decimal.NewFromInt(40)):
		score += 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

var (
	pnlPctHigh  = decimal.NewFromInt(100)
	pnlPctGood  = decimal.NewFromInt(25)
	pnlPctSmall = decimal.NewFromInt(5)
)

// categorizePnL classe un trade par pourcentage de P&L réalisé rapporté
// à la base de coût de la tranche achetée
func categorizePnL(t *models.MatchedTrade) models.PnLCategory {
	costBasis := t.Buy.InvestedUSD()
	if !costBasis.IsPositive() {
		if t.RealizedPnLUSD.IsPositive() {
			return models.PnLHighlyProfitable
		}
		return models.PnLBreakEven
	}

	pct := t.RealizedPnLUSD.Div(costBasis).Mul(hundred)
	switch {
	case pct.GreaterThanOrEqual(pnlPctHigh):
		return models.PnLHighlyProfitable
	case pct.GreaterThanOrEqual(pnlPctGood):
		return models.PnLProfitable
	case pct.GreaterThanOrEqual(pnlPctSmall):
		return models.PnLModerateGain
	case pct.GreaterThan(pnlPctSmall.Neg()):
		return models.PnLBreakEven
	case pct.GreaterThan(pnlPctGood.Neg()):
		return models.PnLModerateLoss
	case pct.GreaterThan(pnlPctHigh.Neg().Div(decimal.NewFromInt(2))):
		return models.PnLSignificantLoss
	default:
		return models.PnLMajorLoss
	}
}

// categorizeHold classe un trade par durée de détention en secondes
func categorizeHold(seconds int64) models.HoldCategory {
	switch {
	case seconds < 300:
		return models.HoldScalp
	case seconds < 86400:
		return models.HoldIntraday
	case seconds < 7*86400:
		return models.HoldShortTerm
	case seconds < 30*86400:
		return models.HoldMediumTerm
	default:
		return models.HoldLongTerm
	}
}
