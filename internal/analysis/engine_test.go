package analysis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tytos-ai/analyser/pkg/models"
)

func testEngine() *Engine {
	e := NewEngine(testLogger())
	e.now = func() time.Time { return time.Unix(1800000000, 0).UTC() }
	return e
}

func TestAnalyzeWalletScenarioA(t *testing.T) {
	engine := testEngine()

	swaps := []models.RawSwap{
		buyTok("tx_buy", 1700000000, "-100", "1000", "0.10"),
		sellTok("tx_sell", 1700000060, "-400", "0.15", "60"),
	}

	result, err := engine.AnalyzeWallet(context.Background(), testWallet, swaps, nil, DefaultConfig())
	require.NoError(t, err)

	tok := result.TokenResults[tokAddr]
	require.NotNil(t, tok)
	assert.True(t, tok.RealizedPnLUSD.Equal(dec("20")))
	assert.True(t, tok.RemainingPosition.Quantity.Equal(dec("600")))
	assert.True(t, tok.RemainingPosition.AvgCostBasisUSD.Equal(dec("0.1")))
	assert.True(t, tok.RemainingPosition.TotalCostBasisUSD.Equal(dec("60")))

	// USDC est une devise d'échange: seul TOK compte dans les totaux
	assert.True(t, result.TotalInvestedUSD.Equal(dec("100")),
		"expected invested 100, got %s", result.TotalInvestedUSD)
	assert.True(t, result.TotalReturnedUSD.Equal(dec("60")),
		"expected returned 60, got %s", result.TotalReturnedUSD)
	assert.Equal(t, 1, result.TokensAnalyzed)
	assert.Equal(t, 4, result.EventsProcessed)
}

func TestAnalyzeWalletExchangeCurrencyExclusion(t *testing.T) {
	engine := testEngine()

	// Plomberie WSOL<->USDC entrelacée avec de vrais achats de TOK
	swaps := []models.RawSwap{
		swap("tx_plumb1", 1700000000,
			side(wsolAddr, "WSOL", "-1", "100"),
			side(usdcAddr, "USDC", "100", "1"),
		),
		buyTok("tx_buy1", 1700000010, "-50", "500", "0.10"),
		swap("tx_plumb2", 1700000020,
			side(usdcAddr, "USDC", "-30", "1"),
			side(wsolAddr, "WSOL", "0.3", "100"),
		),
		buyTok("tx_buy2", 1700000030, "-20", "150", "0.1333333333333333"),
	}

	result, err := engine.AnalyzeWallet(context.Background(), testWallet, swaps, nil, DefaultConfig())
	require.NoError(t, err)

	require.NotNil(t, result.TokenResults[usdcAddr])
	assert.True(t, result.TokenResults[usdcAddr].IsExchangeCurrency)
	assert.True(t, result.TokenResults[wsolAddr].IsExchangeCurrency)
	assert.False(t, result.TokenResults[tokAddr].IsExchangeCurrency)

	// Seuls les achats de TOK comptent comme investissement
	assert.True(t, result.TotalInvestedUSD.Equal(dec("70")),
		"expected invested 70, got %s", result.TotalInvestedUSD)
	assert.Equal(t, 1, result.TokensAnalyzed)
}

func TestAnalyzeWalletPhantomExcludedFromInvested(t *testing.T) {
	engine := testEngine()

	swaps := []models.RawSwap{
		sellTok("tx_orphan", 1700000000, "-500", "0.20", "100"),
	}

	result, err := engine.AnalyzeWallet(context.Background(), testWallet, swaps, nil, DefaultConfig())
	require.NoError(t, err)

	assert.True(t, result.TotalInvestedUSD.IsZero(),
		"phantom buys never count as investment, got %s", result.TotalInvestedUSD)
	assert.Equal(t, 1, result.IncompleteTradesCount)
	assert.Equal(t, 1, result.TotalTrades)
	assert.True(t, result.TotalRealizedPnLUSD.IsZero())
}

func TestAnalyzeWalletUnrealizedPnL(t *testing.T) {
	engine := testEngine()

	swaps := []models.RawSwap{
		buyTok("tx_buy", 1700000000, "-100", "1000", "0.10"),
	}

	t.Run("avec prix courant", func(t *testing.T) {
		prices := map[string]decimal.Decimal{tokAddr: dec("0.25")}
		result, err := engine.AnalyzeWallet(context.Background(), testWallet, swaps, prices, DefaultConfig())
		require.NoError(t, err)

		tok := result.TokenResults[tokAddr]
		assert.True(t, tok.UnrealizedPnLUSD.Equal(dec("150")),
			"(0.25 - 0.10) x 1000 = 150, got %s", tok.UnrealizedPnLUSD)
		for _, w := range result.Warnings {
			assert.NotEqual(t, models.WarningMissingCurrentPrice, w.Kind)
		}
	})

	t.Run("sans prix courant", func(t *testing.T) {
		result, err := engine.AnalyzeWallet(context.Background(), testWallet, swaps, nil, DefaultConfig())
		require.NoError(t, err)

		tok := result.TokenResults[tokAddr]
		assert.True(t, tok.UnrealizedPnLUSD.IsZero())

		found := false
		for _, w := range result.Warnings {
			if w.Kind == models.WarningMissingCurrentPrice && w.TokenAddress == tokAddr {
				found = true
			}
		}
		assert.True(t, found, "missing current price must be surfaced as a warning")
	})
}

func TestAnalyzeWalletEmptyInput(t *testing.T) {
	engine := testEngine()

	result, err := engine.AnalyzeWallet(context.Background(), testWallet, nil, nil, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, testWallet, result.Wallet)
	assert.Empty(t, result.TokenResults)
	assert.True(t, result.TotalPnLUSD.IsZero())
	assert.Nil(t, result.ProfitPercentage)
	assert.Equal(t, 0, result.TotalTrades)
	require.NotNil(t, result.Metrics)
}

func TestAnalyzeWalletDeterminism(t *testing.T) {
	engine := testEngine()

	swaps := []models.RawSwap{
		buyTok("ccc", 1700000000, "-100", "1000", "0.10"),
		sellTok("bbb", 1700000000, "-100", "0.12", "12"),
		buyTok("aaa", 1700000000, "-50", "400", "0.125"),
		sellTok("ddd", 1700000100, "-600", "0.15", "90"),
		swap("eee", 1700000200,
			side(tok2Addr, "TK2", "-10", "3"),
			side(usdcAddr, "USDC", "30", "1"),
		),
	}
	prices := map[string]decimal.Decimal{tokAddr: dec("0.2")}

	run := func(input []models.RawSwap) []byte {
		result, err := engine.AnalyzeWallet(context.Background(), testWallet, input, prices, DefaultConfig())
		require.NoError(t, err)
		data, err := json.Marshal(result)
		require.NoError(t, err)
		return data
	}

	first := run(swaps)

	// Permutation de l'ordre d'entrée: le résultat sérialisé est identique
	permuted := []models.RawSwap{swaps[3], swaps[0], swaps[4], swaps[2], swaps[1]}
	second := run(permuted)

	assert.Equal(t, string(first), string(second))
}

func TestAnalyzeWalletStreaks(t *testing.T) {
	engine := testEngine()

	// Gain, gain, perte, gain: plus longue série gagnante 2, perdante 1
	swaps := []models.RawSwap{
		buyTok("tx_b1", 1700000000, "-100", "1000", "0.10"),
		sellTok("tx_s1", 1700000100, "-200", "0.15", "30"),
		sellTok("tx_s2", 1700000200, "-200", "0.20", "40"),
		sellTok("tx_s3", 1700000300, "-200", "0.05", "10"),
		sellTok("tx_s4", 1700000400, "-200", "0.30", "60"),
	}

	result, err := engine.AnalyzeWallet(context.Background(), testWallet, swaps, nil, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, result.LongestWinningStreak)
	assert.Equal(t, 1, result.LongestLosingStreak)
	assert.Equal(t, 1, result.CurrentWinningStreak)
	assert.Equal(t, 0, result.CurrentLosingStreak)
	assert.Equal(t, 4, result.TotalTrades)
	assert.Equal(t, 3, result.TokenResults[tokAddr].WinningTrades)
	assert.Equal(t, 1, result.TokenResults[tokAddr].LosingTrades)
}

type fixedPriceProvider struct {
	prices map[string]decimal.Decimal
}

func (p *fixedPriceProvider) GetCurrentPrice(_ context.Context, tokenAddress string) (decimal.Decimal, error) {
	return p.prices[tokenAddress], nil
}

func TestAnalyzeWalletWithProvider(t *testing.T) {
	engine := testEngine()

	swaps := []models.RawSwap{
		buyTok("tx_buy", 1700000000, "-100", "1000", "0.10"),
	}
	provider := &fixedPriceProvider{prices: map[string]decimal.Decimal{tokAddr: dec("0.30")}}

	result, err := engine.AnalyzeWalletWithProvider(context.Background(), testWallet, swaps, provider, DefaultConfig())
	require.NoError(t, err)

	tok := result.TokenResults[tokAddr]
	assert.True(t, tok.UnrealizedPnLUSD.Equal(dec("200")),
		"(0.30 - 0.10) x 1000 = 200, got %s", tok.UnrealizedPnLUSD)
}
