package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tytos-ai/analyser/pkg/models"
)

// parseTokenEvents parse les swaps et retourne les événements du token TOK
func parseTokenEvents(t *testing.T, swaps []models.RawSwap) []models.FinancialEvent {
	t.Helper()
	parser := NewParser(DefaultConfig(), testLogger())
	events, _, err := parser.Parse(testWallet, swaps)
	require.NoError(t, err)
	return groupByToken(events)[tokAddr]
}

func TestMatchDirectBuyAndPartialSell(t *testing.T) {
	// Achat de 1000 TOK à $0.10 (100 USDC dépensés) puis vente de 400 à $0.15
	events := parseTokenEvents(t, []models.RawSwap{
		buyTok("tx_buy", 1700000000, "-100", "1000", "0.10"),
		sellTok("tx_sell", 1700000060, "-400", "0.15", "60"),
	})

	outcome, err := matchToken(events, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, outcome.matched, 1)
	trade := outcome.matched[0]
	assert.True(t, trade.QuantityMatched.Equal(dec("400")))
	assert.True(t, trade.RealizedPnLUSD.Equal(dec("20")),
		"(0.15 - 0.10) x 400 = 20, got %s", trade.RealizedPnLUSD)
	assert.Equal(t, int64(60), trade.HoldTimeSeconds)
	assert.Empty(t, outcome.unmatched)

	require.Len(t, outcome.remainingLots, 1)
	remaining := outcome.remainingLots[0]
	assert.True(t, remaining.remaining.Equal(dec("600")))
	require.NotNil(t, remaining.remainingInput)
	assert.True(t, remaining.remainingInput.Equal(dec("60")),
		"remaining cost basis 600 x 0.10 = 60, got %s", remaining.remainingInput)
}

func TestMatchMultiHopCostBasisCorrection(t *testing.T) {
	// Le wallet a dépensé 105 USDC pour 1000 TOK cotés $0.10: la base de
	// coût est 0.105, pas le prix de marché
	events := parseTokenEvents(t, []models.RawSwap{
		buyTok("tx_buy", 1700000000, "-105", "1000", "0.10"),
		sellTok("tx_sell", 1700000060, "-1000", "0.12", "120"),
	})

	outcome, err := matchToken(events, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, outcome.matched, 1)
	assert.True(t, outcome.matched[0].RealizedPnLUSD.Equal(dec("15")),
		"(0.12 - 0.105) x 1000 = 15, got %s", outcome.matched[0].RealizedPnLUSD)
	assert.Empty(t, outcome.remainingLots)
}

func TestMatchPhantomBuyForOrphanSell(t *testing.T) {
	events := parseTokenEvents(t, []models.RawSwap{
		sellTok("tx_orphan", 1700000000, "-500", "0.20", "100"),
	})

	cfg := DefaultConfig()
	outcome, err := matchToken(events, cfg)
	require.NoError(t, err)

	require.Len(t, outcome.unmatched, 1)
	orphan := outcome.unmatched[0]
	assert.True(t, orphan.UnmatchedQuantity.Equal(dec("500")))
	assert.True(t, orphan.PhantomBuyPrice.Equal(dec("0.20")))

	// La vente est aussi appariée contre l'achat fantôme pour la
	// cohérence du comptage de trades, à P&L exactement nul
	require.Len(t, outcome.matched, 1)
	trade := outcome.matched[0]
	assert.True(t, strings.HasPrefix(trade.Buy.TxHash, models.PhantomBuyPrefix))
	assert.True(t, trade.RealizedPnLUSD.IsZero())
	assert.Equal(t, cfg.PhantomBuyOffsetSeconds, trade.HoldTimeSeconds)
	assert.Equal(t, trade.Sell.Timestamp.Add(-time.Second).Unix(), trade.Buy.Timestamp.Unix())
}

func TestMatchFIFOAcrossTwoBuys(t *testing.T) {
	// Deux achats à prix différents, une vente couvrant le premier lot
	// entier plus la moitié du second
	events := parseTokenEvents(t, []models.RawSwap{
		buyTok("tx_b1", 1700000000, "-100", "100", "1.00"),
		buyTok("tx_b2", 1700000060, "-200", "100", "2.00"),
		sellTok("tx_s1", 1700000120, "-150", "3.00", "450"),
	})

	outcome, err := matchToken(events, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, outcome.matched, 2)

	first := outcome.matched[0]
	assert.Equal(t, "tx_b1", first.Buy.TxHash, "earliest lot consumed first")
	assert.True(t, first.QuantityMatched.Equal(dec("100")))
	assert.True(t, first.RealizedPnLUSD.Equal(dec("200")))

	second := outcome.matched[1]
	assert.Equal(t, "tx_b2", second.Buy.TxHash)
	assert.True(t, second.QuantityMatched.Equal(dec("50")))
	assert.True(t, second.RealizedPnLUSD.Equal(dec("50")))

	require.Len(t, outcome.remainingLots, 1)
	assert.True(t, outcome.remainingLots[0].remaining.Equal(dec("50")))
	assert.True(t, outcome.remainingLots[0].costBasisPerToken.Equal(dec("2")))
}

func TestMatchSellBeforeLaterBuy(t *testing.T) {
	// Une vente antérieure à tout achat ne consomme pas les lots futurs
	events := parseTokenEvents(t, []models.RawSwap{
		sellTok("tx_early_sell", 1700000000, "-100", "0.50", "50"),
		buyTok("tx_late_buy", 1700000060, "-60", "100", "0.60"),
	})

	outcome, err := matchToken(events, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, outcome.unmatched, 1)
	require.Len(t, outcome.matched, 1)
	assert.True(t, outcome.matched[0].Buy.IsPhantom())

	// Le lot postérieur reste intact en position
	require.Len(t, outcome.remainingLots, 1)
	assert.Equal(t, "tx_late_buy", outcome.remainingLots[0].event.TxHash)
	assert.True(t, outcome.remainingLots[0].remaining.Equal(dec("100")))
}

func TestMatchQuantityConservation(t *testing.T) {
	// Σ quantités appariées (paires fantômes comprises) + Σ positions
	// restantes = Σ quantités achetées + Σ quantités fantômes, et
	// Σ ventes non appariées = Σ quantités fantômes
	events := parseTokenEvents(t, []models.RawSwap{
		buyTok("tx1", 1700000000, "-100", "1000", "0.10"),
		sellTok("tx2", 1700000010, "-300", "0.12", "36"),
		buyTok("tx3", 1700000020, "-50", "400", "0.125"),
		sellTok("tx4", 1700000030, "-1500", "0.11", "165"),
		sellTok("tx5", 1700000040, "-200", "0.09", "18"),
	})

	outcome, err := matchToken(events, DefaultConfig())
	require.NoError(t, err)

	matchedSum := decimal.Zero
	for _, m := range outcome.matched {
		matchedSum = matchedSum.Add(m.QuantityMatched)
	}
	remainingSum := decimal.Zero
	for _, l := range outcome.remainingLots {
		remainingSum = remainingSum.Add(l.remaining)
	}
	unmatchedSum := decimal.Zero
	for _, u := range outcome.unmatched {
		unmatchedSum = unmatchedSum.Add(u.UnmatchedQuantity)
	}
	buySum := decimal.Zero
	for _, ev := range events {
		if ev.Kind == models.EventBuy {
			buySum = buySum.Add(ev.Quantity)
		}
	}
	phantomSum := decimal.Zero
	for _, p := range outcome.phantomLots {
		phantomSum = phantomSum.Add(p.event.Quantity)
	}

	lhs := matchedSum.Add(remainingSum)
	rhs := buySum.Add(phantomSum)
	assert.True(t, lhs.Equal(rhs),
		"matched(%s) + remaining(%s) = buys(%s) + phantoms(%s)",
		matchedSum, remainingSum, buySum, phantomSum)
	assert.True(t, unmatchedSum.Equal(phantomSum),
		"every unmatched quantity is covered by a phantom lot")

	// Chronologie: aucune durée de détention négative
	for _, m := range outcome.matched {
		assert.GreaterOrEqual(t, m.HoldTimeSeconds, int64(0))
	}
}

func TestMatchPartialLotSliceBookkeeping(t *testing.T) {
	// Trois ventes successives contre un seul lot multi-hop: chaque
	// tranche partage la même base de coût unitaire (105/1000)
	events := parseTokenEvents(t, []models.RawSwap{
		buyTok("tx_b", 1700000000, "-105", "1000", "0.10"),
		sellTok("tx_s1", 1700000010, "-250", "0.20", "50"),
		sellTok("tx_s2", 1700000020, "-250", "0.20", "50"),
		sellTok("tx_s3", 1700000030, "-500", "0.20", "100"),
	})

	outcome, err := matchToken(events, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, outcome.matched, 3)

	expected := []string{"23.75", "23.75", "47.5"}
	for i, m := range outcome.matched {
		assert.True(t, m.RealizedPnLUSD.Equal(dec(expected[i])),
			"trade %d: expected %s, got %s", i, expected[i], m.RealizedPnLUSD)
		require.NotNil(t, m.Buy.SwapInputUSDValue)
	}

	// La tranche d'achat émise porte la fraction consommée de la valeur
	// d'entrée du swap
	assert.True(t, outcome.matched[0].Buy.SwapInputUSDValue.Equal(dec("26.25")))
	assert.True(t, outcome.matched[2].Buy.SwapInputUSDValue.Equal(dec("52.5")))
	assert.Empty(t, outcome.remainingLots)
}
