package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tytos-ai/analyser/pkg/models"
)

func TestExchangeClassifierKnownList(t *testing.T) {
	classifier := NewExchangeClassifier(DefaultConfig())

	assert.True(t, classifier.IsKnown(usdcAddr))
	assert.True(t, classifier.IsKnown(wsolAddr))
	assert.False(t, classifier.IsKnown(tokAddr))
}

func TestExchangeClassifierOverlay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExchangeCurrencyAddresses = []string{tokAddr}
	classifier := NewExchangeClassifier(cfg)

	assert.True(t, classifier.IsKnown(tokAddr))
	assert.True(t, classifier.Classify(&models.TokenResult{TokenAddress: tokAddr}))
}

func TestExchangeClassifierBehavioural(t *testing.T) {
	base := models.TokenResult{
		TokenAddress: tokAddr,
		TotalTrades:  5,
		TotalPnLUSD:  dec("0.02"),
		HoldTimeStats: models.HoldTimeStats{
			AvgMinutes: dec("0.05"),
		},
	}

	tests := []struct {
		name     string
		mutate   func(*models.TokenResult)
		expected bool
	}{
		{
			name:     "plomberie typique détectée",
			mutate:   func(tr *models.TokenResult) {},
			expected: true,
		},
		{
			name: "détention trop longue",
			mutate: func(tr *models.TokenResult) {
				tr.HoldTimeStats.AvgMinutes = dec("5")
			},
			expected: false,
		},
		{
			name: "pnl significatif",
			mutate: func(tr *models.TokenResult) {
				tr.TotalPnLUSD = dec("25")
			},
			expected: false,
		},
		{
			name: "pas assez de trades",
			mutate: func(tr *models.TokenResult) {
				tr.TotalTrades = 1
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewExchangeClassifier(DefaultConfig())
			tr := base
			tt.mutate(&tr)
			assert.Equal(t, tt.expected, classifier.Classify(&tr))
		})
	}
}

func TestExchangeClassifierBehaviouralDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExchangeCurrencyBehavioural = false
	classifier := NewExchangeClassifier(cfg)

	tr := models.TokenResult{
		TokenAddress:  tokAddr,
		TotalTrades:   10,
		TotalPnLUSD:   dec("0.01"),
		HoldTimeStats: models.HoldTimeStats{AvgMinutes: dec("0.01")},
	}
	assert.False(t, classifier.Classify(&tr))
}
