package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tytos-ai/analyser/pkg/models"
)

// PriceProvider fournit le prix courant d'un token pour le calcul du
// P&L latent. Les implémentations doivent être sûres en accès concurrent;
// une erreur ou un prix inconnu se replie sur zéro.
type PriceProvider interface {
	GetCurrentPrice(ctx context.Context, tokenAddress string) (decimal.Decimal, error)
}

// Engine est le moteur d'analyse P&L d'un wallet. Il est pur: aucune
// E/S pendant l'appariement, les prix courants sont préchargés avant.
type Engine struct {
	logger *logrus.Logger
	now    func() time.Time
}

// NewEngine crée un nouveau moteur d'analyse
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		logger: logger,
		now:    time.Now,
	}
}

// AnalyzeWallet analyse l'historique de swaps d'un wallet et produit son
// résultat de portfolio: parsing des événements, appariement FIFO par
// token (en parallèle, chaque token restant strictement séquentiel),
// agrégation portfolio puis métriques dérivées.
func (e *Engine) AnalyzeWallet(ctx context.Context, wallet string, swaps []models.RawSwap, currentPrices map[string]decimal.Decimal, cfg Config) (*models.PortfolioResult, error) {
	cfg = cfg.withDefaults()
	start := e.now()

	if currentPrices == nil {
		currentPrices = map[string]decimal.Decimal{}
	}

	parser := NewParser(cfg, e.logger)
	events, warnings, err := parser.Parse(wallet, swaps)
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		result := &models.PortfolioResult{
			Wallet:            wallet,
			TokenResults:      map[string]*models.TokenResult{},
			Warnings:          warnings,
			AnalysisTimestamp: start,
		}
		result.Metrics = computeMetrics(result, cfg)
		return result, nil
	}

	byToken := groupByToken(events)

	tokenResults, err := e.analyzeTokens(ctx, byToken, currentPrices, cfg)
	if err != nil {
		return nil, err
	}

	classifier := NewExchangeClassifier(cfg)
	result := aggregatePortfolio(wallet, tokenResults, currentPrices, classifier)

	// Avertissement par token détenu sans prix courant connu, en ordre
	// stable d'adresse
	addresses := make([]string, 0, len(tokenResults))
	for addr := range tokenResults {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)
	for _, addr := range addresses {
		tr := tokenResults[addr]
		if tr.RemainingPosition.Quantity.IsPositive() {
			if price, ok := currentPrices[addr]; !ok || !price.IsPositive() {
				warnings = append(warnings, models.Warning{
					Kind:         models.WarningMissingCurrentPrice,
					TokenAddress: addr,
					Message:      "no current price for remaining position, unrealized pnl reported as 0",
				})
			}
		}
	}

	result.Warnings = warnings
	result.AnalysisTimestamp = start
	result.Metrics = computeMetrics(result, cfg)

	e.logger.WithFields(logrus.Fields{
		"wallet":           wallet,
		"tokens_analyzed":  result.TokensAnalyzed,
		"events_processed": result.EventsProcessed,
		"total_trades":     result.TotalTrades,
		"total_pnl_usd":    result.TotalPnLUSD.String(),
		"duration_ms":      time.Since(start).Milliseconds(),
	}).Info("Wallet analysis completed")

	return result, nil
}

// AnalyzeWalletWithProvider précharge les prix courants de chaque token
// via le PriceProvider puis délègue à AnalyzeWallet, pour que
// l'appariement lui-même reste purement CPU
func (e *Engine) AnalyzeWalletWithProvider(ctx context.Context, wallet string, swaps []models.RawSwap, provider PriceProvider, cfg Config) (*models.PortfolioResult, error) {
	currentPrices := map[string]decimal.Decimal{}

	if provider != nil {
		seen := map[string]bool{}
		for i := range swaps {
			for _, side := range []models.SwapSide{swaps[i].QuoteSide, swaps[i].BaseSide} {
				if seen[side.TokenAddress] {
					continue
				}
				seen[side.TokenAddress] = true
				price, err := provider.GetCurrentPrice(ctx, side.TokenAddress)
				if err != nil {
					e.logger.WithFields(logrus.Fields{
						"token_address": side.TokenAddress,
						"error":         err.Error(),
					}).Warn("Failed to fetch current price, falling back to 0")
					continue
				}
				if price.IsPositive() {
					currentPrices[side.TokenAddress] = price
				}
			}
		}
	}

	return e.AnalyzeWallet(ctx, wallet, swaps, currentPrices, cfg)
}

// analyzeTokens exécute l'analyse de chaque token du wallet dans un pool
// de workers borné. Les tokens sont indépendants; l'annulation est
// observée entre tokens, jamais au milieu d'un appariement.
func (e *Engine) analyzeTokens(ctx context.Context, byToken map[string][]models.FinancialEvent, currentPrices map[string]decimal.Decimal, cfg Config) (map[string]*models.TokenResult, error) {
	workers := cfg.MaxTokenWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(byToken) {
		workers = len(byToken)
	}
	if workers < 1 {
		workers = 1
	}

	type tokenJob struct {
		address string
		events  []models.FinancialEvent
	}

	jobs := make(chan tokenJob)
	results := make(map[string]*models.TokenResult, len(byToken))

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				price := currentPrices[job.address]
				tr, err := analyzeToken(job.events, price, cfg)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("token %s: %w", job.address, err)
					}
				} else {
					results[job.address] = tr
				}
				mu.Unlock()
			}
		}()
	}

	addresses := make([]string, 0, len(byToken))
	for addr := range byToken {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

dispatch:
	for _, addr := range addresses {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- tokenJob{address: addr, events: byToken[addr]}:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// groupByToken partitionne le flux trié d'événements par adresse de
// token; l'ordre relatif des événements d'un même token est préservé
func groupByToken(events []models.FinancialEvent) map[string][]models.FinancialEvent {
	byToken := make(map[string][]models.FinancialEvent)
	for _, ev := range events {
		byToken[ev.TokenAddress] = append(byToken[ev.TokenAddress], ev)
	}
	return byToken
}
