package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/tytos-ai/analyser/internal/pipeline"
	"github.com/tytos-ai/analyser/internal/storage/cache"
	"github.com/tytos-ai/analyser/internal/storage/db"
	"github.com/tytos-ai/analyser/pkg/utils/config"
	"github.com/tytos-ai/analyser/pkg/utils/logger"
)

// Server gère le serveur HTTP de l'API
type Server struct {
	config     *config.APIConfig
	router     *mux.Router
	httpServer *http.Server
	logger     *logger.Logger
}

// NewServer crée un nouveau serveur API
func NewServer(cfg *config.APIConfig, orchestrator *pipeline.Orchestrator, database *db.Connection, cacheClient *cache.Redis, chain string, logger *logger.Logger) *Server {
	router := mux.NewRouter()

	server := &Server{
		config: cfg,
		router: router,
		logger: logger,
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	router.HandleFunc("/api/health", server.HealthCheck).Methods("GET")

	analysisHandler := NewAnalysisHandler(orchestrator, database, cacheClient, chain, logger)
	analysisHandler.RegisterRoutes(router)

	router.Use(corsMiddleware.Handler)
	router.Use(server.loggingMiddleware)

	return server
}

// HealthCheck vérifie l'état du serveur
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// loggingMiddleware journalise les requêtes HTTP
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("HTTP Request",
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.UserAgent(),
				"duration_ms": time.Since(start).Milliseconds(),
			},
		)
	})
}

// Start démarre le serveur HTTP
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(s.config.WriteTimeout) * time.Second,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	s.logger.Info("Démarrage du serveur API", map[string]interface{}{
		"address": addr,
	})

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown arrête proprement le serveur HTTP
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Arrêt du serveur API")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
