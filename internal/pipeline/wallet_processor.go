package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tytos-ai/analyser/internal/analysis"
	"github.com/tytos-ai/analyser/internal/gateway/birdeye"
	"github.com/tytos-ai/analyser/internal/storage/cache"
	"github.com/tytos-ai/analyser/internal/storage/db"
	"github.com/tytos-ai/analyser/pkg/utils/config"
)

// WalletAnalysisProcessor consomme les lots de wallets: récupération de
// l'historique de swaps, analyse P&L et persistance des résultats. Les
// wallets d'un lot sont indépendants et traités par un pool de workers;
// l'annulation est observée entre wallets.
type WalletAnalysisProcessor struct {
	name        string
	gateway     *birdeye.Gateway
	engine      *analysis.Engine
	database    *db.Connection
	cache       *cache.Redis
	jobs        *JobStore
	analysisCfg analysis.Config
	batchCfg    *config.BatchConfig
	chain       string
	logger      *logrus.Logger
}

// NewWalletAnalysisProcessor crée le processeur d'analyse de wallets
func NewWalletAnalysisProcessor(
	gateway *birdeye.Gateway,
	engine *analysis.Engine,
	database *db.Connection,
	cacheClient *cache.Redis,
	jobs *JobStore,
	analysisCfg analysis.Config,
	batchCfg *config.BatchConfig,
	chain string,
	logger *logrus.Logger,
) *WalletAnalysisProcessor {
	return &WalletAnalysisProcessor{
		name:        "wallet_analysis",
		gateway:     gateway,
		engine:      engine,
		database:    database,
		cache:       cacheClient,
		jobs:        jobs,
		analysisCfg: analysisCfg,
		batchCfg:    batchCfg,
		chain:       chain,
		logger:      logger,
	}
}

// GetName retourne le nom du processeur
func (p *WalletAnalysisProcessor) GetName() string {
	return p.name
}

// Process traite un message de lot de wallets
func (p *WalletAnalysisProcessor) Process(ctx context.Context, message Message) error {
	jobID, ok := message.Payload["job_id"].(string)
	if !ok || jobID == "" {
		// Message d'initialisation de stream ou malformé, rien à faire
		return nil
	}

	job, err := p.jobs.Get(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("unknown job %s", jobID)
	}

	p.logger.WithFields(logrus.Fields{
		"job_id":  jobID,
		"wallets": job.TotalWallets,
	}).Info("Processing wallet batch")

	job.Status = JobRunning
	if err := p.jobs.Save(job); err != nil {
		return err
	}

	workers := p.batchCfg.WalletWorkers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(job.Wallets) {
		workers = len(job.Wallets)
	}

	walletCh := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wallet := range walletCh {
				err := p.analyzeWallet(ctx, wallet)

				mu.Lock()
				if err != nil {
					job.FailedCount++
					p.logger.WithFields(logrus.Fields{
						"job_id":         jobID,
						"wallet_address": wallet,
						"error":          err.Error(),
					}).Error("Wallet analysis failed")
				} else {
					job.CompletedCount++
				}
				if err := p.jobs.Save(job); err != nil {
					p.logger.WithFields(logrus.Fields{
						"job_id": jobID,
						"error":  err.Error(),
					}).Error("Failed to persist job progress")
				}
				mu.Unlock()
			}
		}()
	}

	// L'annulation interrompt la distribution entre wallets; les analyses
	// en cours se terminent
	cancelled := false
	for _, wallet := range job.Wallets {
		select {
		case <-ctx.Done():
			cancelled = true
		case walletCh <- wallet:
			continue
		}
		break
	}
	close(walletCh)
	wg.Wait()

	switch {
	case cancelled:
		job.Status = JobFailed
		job.Error = "batch cancelled"
	case job.FailedCount > 0 && job.CompletedCount == 0:
		job.Status = JobFailed
		job.Error = "all wallet analyses failed"
	default:
		job.Status = JobCompleted
	}

	if err := p.jobs.Save(job); err != nil {
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"job_id":    jobID,
		"status":    job.Status,
		"completed": job.CompletedCount,
		"failed":    job.FailedCount,
	}).Info("Wallet batch finished")

	return nil
}

// analyzeWallet exécute l'analyse complète d'un wallet et persiste le
// résultat en base et en cache
func (p *WalletAnalysisProcessor) analyzeWallet(ctx context.Context, wallet string) error {
	start := time.Now()

	swaps, err := p.gateway.FetchWalletSwaps(ctx, wallet)
	if err != nil {
		return fmt.Errorf("fetch swaps: %w", err)
	}

	result, err := p.engine.AnalyzeWalletWithProvider(ctx, wallet, swaps, p.gateway, p.analysisCfg)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if err := p.database.SavePortfolioResult(ctx, result, p.chain); err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	ttl := time.Duration(p.batchCfg.ResultTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := p.cache.CachePortfolioResult(result, ttl); err != nil {
		p.logger.WithFields(logrus.Fields{
			"wallet_address": wallet,
			"error":          err.Error(),
		}).Warn("Failed to cache portfolio result")
	}

	p.logger.WithFields(logrus.Fields{
		"wallet_address": wallet,
		"swap_count":     len(swaps),
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Debug("Wallet analyzed")

	return nil
}
