package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tytos-ai/analyser/pkg/models"
)

func portfolioWithTrades(holdSeconds []int64, pnls []string) *models.PortfolioResult {
	trades := make([]models.MatchedTrade, len(holdSeconds))
	for i := range holdSeconds {
		trades[i] = models.MatchedTrade{
			TokenAddress:    tokAddr,
			HoldTimeSeconds: holdSeconds[i],
			RealizedPnLUSD:  dec(pnls[i]),
			Buy: models.FinancialEvent{
				Kind:     models.EventBuy,
				Quantity: dec("100"),
				USDValue: dec("100"),
			},
		}
	}
	return &models.PortfolioResult{
		TokenResults: map[string]*models.TokenResult{
			tokAddr: {TokenAddress: tokAddr, MatchedTrades: trades},
		},
	}
}

func TestClassifyStyle(t *testing.T) {
	tests := []struct {
		name        string
		holdSeconds []int64
		expected    models.StyleKind
		predominant *models.StyleKind
	}{
		{
			name:        "scalper homogène",
			holdSeconds: []int64{30, 120, 600, 1200},
			expected:    models.StyleScalper,
		},
		{
			name:        "swing trader homogène",
			holdSeconds: []int64{7200, 14400, 43200, 3600},
			expected:    models.StyleSwingTrader,
		},
		{
			name:        "long terme homogène",
			holdSeconds: []int64{90000, 180000, 200000},
			expected:    models.StyleLongTerm,
		},
		{
			name:        "distribution hétérogène donne mixed",
			holdSeconds: []int64{30, 60, 7200, 14400, 90000, 180000},
			expected:    models.StyleMixed,
			predominant: stylePtr(models.StyleScalper),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pnls := make([]string, len(tt.holdSeconds))
			for i := range pnls {
				pnls[i] = "1"
			}
			result := portfolioWithTrades(tt.holdSeconds, pnls)

			style := classifyStyle(result)
			assert.Equal(t, tt.expected, style.Kind)
			if tt.predominant != nil {
				require.NotNil(t, style.Predominant)
				assert.Equal(t, *tt.predominant, *style.Predominant)
			} else {
				assert.Nil(t, style.Predominant)
			}
		})
	}
}

func stylePtr(s models.StyleKind) *models.StyleKind { return &s }

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name     string
		trades   int
		pnl      string
		winRate  string
		expected int
	}{
		{"base sans historique", 0, "0", "0", 50},
		{"actif et rentable", 12, "500", "65", 100},
		{"peu actif mais rentable", 6, "100", "50", 85},
		{"actif perdant", 15, "-200", "30", 70},
		{"rentable win rate moyen", 3, "50", "45", 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &models.PortfolioResult{
				TotalTrades:              tt.trades,
				TotalPnLUSD:              dec(tt.pnl),
				OverallWinRatePercentage: dec(tt.winRate),
			}
			score := qualityScore(result)
			assert.Equal(t, tt.expected, score)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		})
	}
}

func TestComputeRisk(t *testing.T) {
	result := &models.PortfolioResult{
		TokenResults: map[string]*models.TokenResult{
			tokAddr: {
				TokenAddress: tokAddr,
				InvestedUSD:  dec("300"),
				LosingTrades: 2,
			},
			tok2Addr: {
				TokenAddress: tok2Addr,
				InvestedUSD:  dec("100"),
			},
			usdcAddr: {
				TokenAddress:       usdcAddr,
				InvestedUSD:        dec("5000"),
				IsExchangeCurrency: true,
			},
		},
		TotalInvestedUSD:     dec("400"),
		TotalPnLUSD:          dec("80"),
		LongestLosingStreak:  2,
		LongestWinningStreak: 3,
	}

	risk := computeRisk(result, dec("40"))

	assert.True(t, risk.MaxPositionPercentage.Equal(dec("75")),
		"300/400 = 75%%, got %s", risk.MaxPositionPercentage)
	// HHI = 0.75^2 + 0.25^2 = 0.625 -> diversification 37.5
	assert.True(t, risk.DiversificationScore.Equal(dec("37.5")),
		"got %s", risk.DiversificationScore)
	assert.Equal(t, 2, risk.MaxConsecutiveLosses)
	assert.Equal(t, 3, risk.MaxWinStreak)
	assert.True(t, risk.AvgLossPerTrade.Equal(dec("20")))
	assert.True(t, risk.RiskAdjustedReturn.Equal(dec("2")))
}

func TestCategorizePnL(t *testing.T) {
	tests := []struct {
		realized string
		invested string
		expected models.PnLCategory
	}{
		{"150", "100", models.PnLHighlyProfitable},
		{"30", "100", models.PnLProfitable},
		{"10", "100", models.PnLModerateGain},
		{"1", "100", models.PnLBreakEven},
		{"-1", "100", models.PnLBreakEven},
		{"-10", "100", models.PnLModerateLoss},
		{"-30", "100", models.PnLSignificantLoss},
		{"-80", "100", models.PnLMajorLoss},
	}

	for _, tt := range tests {
		trade := &models.MatchedTrade{
			RealizedPnLUSD: dec(tt.realized),
			Buy: models.FinancialEvent{
				USDValue: dec(tt.invested),
				Quantity: dec("1"),
			},
		}
		assert.Equal(t, tt.expected, categorizePnL(trade),
			"realized %s on invested %s", tt.realized, tt.invested)
	}
}

func TestCategorizeHold(t *testing.T) {
	assert.Equal(t, models.HoldScalp, categorizeHold(60))
	assert.Equal(t, models.HoldIntraday, categorizeHold(3600))
	assert.Equal(t, models.HoldShortTerm, categorizeHold(2*86400))
	assert.Equal(t, models.HoldMediumTerm, categorizeHold(15*86400))
	assert.Equal(t, models.HoldLongTerm, categorizeHold(60*86400))
}

func TestComputeMetricsQualityScoreToggle(t *testing.T) {
	result := portfolioWithTrades([]int64{60}, []string{"10"})

	cfg := DefaultConfig()
	metrics := computeMetrics(result, cfg)
	require.NotNil(t, metrics.QualityScore)

	cfg.QualityScoreEnabled = false
	metrics = computeMetrics(result, cfg)
	assert.Nil(t, metrics.QualityScore)
	assert.Equal(t, 1, metrics.PnLDistribution[models.PnLModerateGain])
	assert.Equal(t, 1, metrics.HoldDistribution[models.HoldScalp])
}

func TestHoldStatsFromEngineTrades(t *testing.T) {
	// Les statistiques de détention per-token couvrent min/avg/max
	result, err := analyzeToken(parseTokenEventsForHold(t), decimal.Zero, DefaultConfig())
	require.NoError(t, err)

	stats := result.HoldTimeStats
	assert.True(t, stats.MinMinutes.Equal(dec("1")))
	assert.True(t, stats.MaxMinutes.Equal(dec("5")))
	assert.True(t, stats.AvgMinutes.Equal(dec("3")))
}

func parseTokenEventsForHold(t *testing.T) []models.FinancialEvent {
	t.Helper()
	parser := NewParser(DefaultConfig(), testLogger())
	events, _, err := parser.Parse(testWallet, []models.RawSwap{
		buyTok("tx_b1", 1700000000, "-10", "100", "0.10"),
		sellTok("tx_s1", 1700000060, "-100", "0.12", "12"),
		buyTok("tx_b2", 1700000100, "-10", "100", "0.10"),
		sellTok("tx_s2", 1700000400, "-100", "0.12", "12"),
	})
	require.NoError(t, err)
	return groupByToken(events)[tokAddr]
}
