package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tytos-ai/analyser/internal/pipeline"
	"github.com/tytos-ai/analyser/internal/storage/cache"
	"github.com/tytos-ai/analyser/internal/storage/db"
	"github.com/tytos-ai/analyser/pkg/utils/logger"
)

// AnalysisHandler gère les requêtes API d'analyse de wallets
type AnalysisHandler struct {
	orchestrator *pipeline.Orchestrator
	database     *db.Connection
	cache        *cache.Redis
	chain        string
	logger       *logger.Logger
}

// NewAnalysisHandler crée un nouveau gestionnaire d'analyses
func NewAnalysisHandler(orchestrator *pipeline.Orchestrator, database *db.Connection, cacheClient *cache.Redis, chain string, logger *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		orchestrator: orchestrator,
		database:     database,
		cache:        cacheClient,
		chain:        chain,
		logger:       logger,
	}
}

// RegisterRoutes enregistre les routes de l'API d'analyse
func (h *AnalysisHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/analyses", h.SubmitBatch).Methods("POST")
	router.HandleFunc("/api/analyses/{jobID}", h.GetJobStatus).Methods("GET")
	router.HandleFunc("/api/wallets/{address}/result", h.GetWalletResult).Methods("GET")
	router.HandleFunc("/api/results", h.ListResults).Methods("GET")
}

// submitBatchRequest est le corps attendu par la soumission de lot
type submitBatchRequest struct {
	Wallets []string `json:"wallets"`
}

// SubmitBatch soumet un lot de wallets à analyser
func (h *AnalysisHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req submitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.orchestrator.SubmitBatch(req.Wallets)
	if err != nil {
		h.logger.Error("Échec de la soumission du lot", err, map[string]interface{}{
			"wallet_count": len(req.Wallets),
		})
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeData(w, http.StatusAccepted, map[string]interface{}{
		"job_id":        job.ID,
		"status":        job.Status,
		"total_wallets": job.TotalWallets,
	})
}

// GetJobStatus retourne l'état d'un lot d'analyse
func (h *AnalysisHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobID"]

	job, err := h.orchestrator.GetJob(jobID)
	if err != nil {
		h.logger.Error("Échec de la récupération du lot", err, map[string]interface{}{
			"job_id": jobID,
		})
		h.writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job == nil {
		h.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	h.writeData(w, http.StatusOK, job)
}

// GetWalletResult retourne le résultat complet d'un wallet (vue détail).
// Le cache est consulté avant la base.
func (h *AnalysisHandler) GetWalletResult(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]

	result, err := h.cache.GetCachedPortfolioResult(address)
	if err != nil {
		h.logger.Error("Échec de la lecture du cache de résultats", err, map[string]interface{}{
			"wallet_address": address,
		})
	}

	if result == nil {
		result, err = h.database.GetPortfolioResult(r.Context(), address, h.chain)
		if err != nil {
			h.logger.Error("Échec de la récupération du résultat", err, map[string]interface{}{
				"wallet_address": address,
			})
			h.writeError(w, http.StatusInternalServerError, "failed to load result")
			return
		}
	}

	if result == nil {
		h.writeError(w, http.StatusNotFound, "no analysis for wallet")
		return
	}

	h.writeData(w, http.StatusOK, result)
}

// ListResults retourne les résumés de résultats (chemin de lecture des
// listes; les portfolios complets ne sont chargés qu'en vue détail)
func (h *AnalysisHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err == nil && parsed > 0 {
			limit = parsed
		}
	}

	summaries, err := h.database.ListResultSummaries(r.Context(), h.chain, limit)
	if err != nil {
		h.logger.Error("Échec de la récupération des résumés", err, nil)
		h.writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"results": summaries,
		"count":   len(summaries),
	})
}

// writeData écrit l'enveloppe de succès {data, timestamp}
func (h *AnalysisHandler) writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError écrit l'enveloppe d'erreur {error, timestamp}
func (h *AnalysisHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
