package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tytos-ai/analyser/internal/analysis"
	"github.com/tytos-ai/analyser/internal/api"
	"github.com/tytos-ai/analyser/internal/gateway/birdeye"
	"github.com/tytos-ai/analyser/internal/pipeline"
	"github.com/tytos-ai/analyser/internal/storage/cache"
	"github.com/tytos-ai/analyser/internal/storage/db"
	"github.com/tytos-ai/analyser/pkg/utils/config"
	"github.com/tytos-ai/analyser/pkg/utils/logger"
)

// Application représente l'application complète avec tous ses composants
type Application struct {
	cfg          *config.Config
	logger       *logrus.Logger
	apiLogger    *logger.Logger
	db           *db.Connection
	redis        *cache.Redis
	gateway      *birdeye.Gateway
	engine       *analysis.Engine
	pipeline     *pipeline.Pipeline
	orchestrator *pipeline.Orchestrator
	apiServer    *api.Server
	ctx          context.Context
	cancel       context.CancelFunc
}

// InitializeApplication initialise tous les composants de l'application
func InitializeApplication(cfg *config.Config, log *logrus.Logger) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	apiLogger := logger.NewLogger(cfg.LogLevel)

	database, err := db.NewConnection(cfg.Database, apiLogger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("échec de la connexion à la base de données: %w", err)
	}

	redisClient, err := cache.NewRedisConnection(cfg.Redis, log)
	if err != nil {
		database.Close()
		cancel()
		return nil, fmt.Errorf("échec de la connexion à Redis: %w", err)
	}

	birdeyeConfig := birdeye.ClientConfig{
		BaseURL:        cfg.Birdeye.BaseURL,
		APIKey:         cfg.Birdeye.APIKey,
		Chain:          cfg.Birdeye.Chain,
		RequestTimeout: cfg.Birdeye.RequestTimeout,
		RateLimitDelay: time.Duration(cfg.Birdeye.RateLimitDelay) * time.Millisecond,
		PageSize:       cfg.Birdeye.PageSize,
		MaxSwaps:       cfg.Birdeye.MaxSwaps,
	}

	birdeyeClient := birdeye.NewClient(birdeyeConfig)
	gateway := birdeye.NewGateway(birdeyeClient, redisClient, birdeyeConfig, log)
	engine := analysis.NewEngine(log)

	jobTTL := time.Duration(cfg.Batch.ResultTTLHours) * time.Hour
	jobStore := pipeline.NewJobStore(redisClient, jobTTL)

	pipelineSys := pipeline.NewPipeline(redisClient, log)
	processor := pipeline.NewWalletAnalysisProcessor(
		gateway, engine, database, redisClient, jobStore,
		toAnalysisConfig(cfg.Analysis), cfg.Batch, cfg.Birdeye.Chain, log,
	)
	pipelineSys.RegisterProcessor(pipeline.StreamWalletBatches, processor)

	orchestrator := pipeline.NewOrchestrator(pipelineSys, jobStore, cfg.Batch.MaxWalletsPerBatch)

	apiServer := api.NewServer(cfg.API, orchestrator, database, redisClient, cfg.Birdeye.Chain, apiLogger)

	return &Application{
		cfg:          cfg,
		logger:       log,
		apiLogger:    apiLogger,
		db:           database,
		redis:        redisClient,
		gateway:      gateway,
		engine:       engine,
		pipeline:     pipelineSys,
		orchestrator: orchestrator,
		apiServer:    apiServer,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// toAnalysisConfig convertit la section de configuration en options du
// moteur d'analyse
func toAnalysisConfig(cfg *config.AnalysisConfig) analysis.Config {
	out := analysis.DefaultConfig()
	if cfg == nil {
		return out
	}
	if cfg.PriceDeviationThreshold > 0 {
		out.PriceDeviationThreshold = decimal.NewFromFloat(cfg.PriceDeviationThreshold)
	}
	out.ExchangeCurrencyAddresses = cfg.ExchangeCurrencyAddresses
	out.ExchangeCurrencyBehavioural = cfg.ExchangeCurrencyBehavioural
	if cfg.PhantomBuyOffsetSeconds > 0 {
		out.PhantomBuyOffsetSeconds = cfg.PhantomBuyOffsetSeconds
	}
	out.IgnoreSameSignSwaps = cfg.IgnoreSameSignSwaps
	out.QualityScoreEnabled = cfg.QualityScoreEnabled
	out.MaxTokenWorkers = cfg.MaxTokenWorkers
	return out
}

// Start démarre l'application
func (app *Application) Start() error {
	if err := app.pipeline.Start(app.ctx); err != nil {
		return fmt.Errorf("échec du démarrage du pipeline: %w", err)
	}

	go func() {
		if err := app.apiServer.Start(); err != nil {
			app.logger.Errorf("Erreur du serveur API: %v", err)
			app.cancel()
		}
	}()

	app.logger.Info("Tous les composants ont démarré avec succès")
	return nil
}

// Stop arrête l'application
func (app *Application) Stop() error {
	app.cancel()

	if err := app.apiServer.Shutdown(app.ctx); err != nil {
		app.logger.Errorf("Erreur lors de l'arrêt du serveur API: %v", err)
	}

	if err := app.pipeline.Shutdown(app.ctx); err != nil {
		app.logger.Errorf("Erreur lors de l'arrêt du pipeline: %v", err)
	}

	if err := app.redis.Close(); err != nil {
		app.logger.Errorf("Erreur lors de la fermeture de Redis: %v", err)
	}
	app.db.Close()
	app.apiLogger.Sync()

	return nil
}

// Context retourne le contexte racine de l'application
func (app *Application) Context() context.Context {
	return app.ctx
}
