package birdeye

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tytos-ai/analyser/internal/storage/cache"
	"github.com/tytos-ai/analyser/pkg/models"
)

// Gateway adapte le client Birdeye aux types du domaine: historique de
// swaps d'un wallet et fournisseur de prix courants avec cache
type Gateway struct {
	client   Client
	cache    *cache.Redis
	logger   *logrus.Logger
	pageSize int
	maxSwaps int
	priceTTL time.Duration
}

// NewGateway crée une nouvelle passerelle de données de marché
func NewGateway(client Client, cacheClient *cache.Redis, cfg ClientConfig, logger *logrus.Logger) *Gateway {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	maxSwaps := cfg.MaxSwaps
	if maxSwaps <= 0 {
		maxSwaps = 10000
	}
	return &Gateway{
		client:   client,
		cache:    cacheClient,
		logger:   logger,
		pageSize: pageSize,
		maxSwaps: maxSwaps,
		priceTTL: 60 * time.Second,
	}
}

// FetchWalletSwaps récupère l'historique complet de swaps d'un wallet,
// borné par max_swaps, converti en RawSwap du domaine
func (g *Gateway) FetchWalletSwaps(ctx context.Context, walletAddress string) ([]models.RawSwap, error) {
	swaps := make([]models.RawSwap, 0, g.pageSize)

	for offset := 0; offset < g.maxSwaps; offset += g.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := g.client.GetTraderTxs(walletAddress, offset, g.pageSize)
		if err != nil {
			return nil, fmt.Errorf("échec de la récupération des swaps du wallet %s: %w", walletAddress, err)
		}

		for i := range page.Items {
			swaps = append(swaps, toRawSwap(&page.Items[i]))
		}

		if !page.HasNext || len(page.Items) == 0 {
			break
		}
	}

	g.logger.WithFields(logrus.Fields{
		"wallet_address": walletAddress,
		"swap_count":     len(swaps),
	}).Debug("Fetched wallet swap history")

	return swaps, nil
}

// toRawSwap convertit une transaction du format API au modèle du domaine.
// Les montants flottants de l'API sont convertis en décimaux exacts à
// cette frontière; tout le reste du pipeline travaille en décimal.
func toRawSwap(tx *SwapTx) models.RawSwap {
	swap := models.RawSwap{
		TxHash:    tx.TxHash,
		BlockTime: tx.BlockTime,
		QuoteSide: toSwapSide(&tx.Quote),
		BaseSide:  toSwapSide(&tx.Base),
	}
	if tx.VolumeUSD != nil {
		volume := decimal.NewFromFloat(*tx.VolumeUSD)
		swap.VolumeUSD = &volume
	}
	return swap
}

func toSwapSide(amount *TokenAmount) models.SwapSide {
	side := models.SwapSide{
		TokenAddress:   amount.Address,
		TokenSymbol:    amount.Symbol,
		UIChangeAmount: decimal.NewFromFloat(amount.UIChangeAmount),
	}
	if amount.Price != nil {
		side.Price = decimal.NewFromFloat(*amount.Price)
	}
	if amount.NearestPrice != nil {
		nearest := decimal.NewFromFloat(*amount.NearestPrice)
		side.NearestPrice = &nearest
	}
	return side
}

// GetCurrentPrice implémente analysis.PriceProvider: cache redis devant
// l'API, repli déterministe sur zéro en cas d'échec
func (g *Gateway) GetCurrentPrice(ctx context.Context, tokenAddress string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	cacheKey := fmt.Sprintf("analyser:price:%s", tokenAddress)
	if g.cache != nil {
		if cached, err := g.cache.Get(cacheKey); err == nil {
			price, err := decimal.NewFromString(cached)
			if err == nil {
				return price, nil
			}
		}
	}

	data, err := g.client.GetTokenPrice(tokenAddress)
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"token_address": tokenAddress,
			"error":         err.Error(),
		}).Warn("Failed to fetch current price")
		return decimal.Zero, nil
	}

	price := decimal.NewFromFloat(data.Value)
	if g.cache != nil {
		if err := g.cache.Set(cacheKey, price.String(), g.priceTTL); err != nil {
			g.logger.WithFields(logrus.Fields{
				"token_address": tokenAddress,
				"error":         err.Error(),
			}).Warn("Failed to cache current price")
		}
	}

	return price, nil
}
