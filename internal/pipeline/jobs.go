package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tytos-ai/analyser/internal/storage/cache"
)

// JobStatus est l'état d'un lot d'analyse
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// BatchJob suit la progression de l'analyse d'un lot de wallets
type BatchJob struct {
	ID             string    `json:"id"`
	Status         JobStatus `json:"status"`
	Wallets        []string  `json:"wallets"`
	TotalWallets   int       `json:"total_wallets"`
	CompletedCount int       `json:"completed_count"`
	FailedCount    int       `json:"failed_count"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JobStore persiste l'état des lots dans redis
type JobStore struct {
	cache *cache.Redis
	ttl   time.Duration
}

// NewJobStore crée un nouveau store de lots
func NewJobStore(cacheClient *cache.Redis, ttl time.Duration) *JobStore {
	return &JobStore{cache: cacheClient, ttl: ttl}
}

// NewBatchJob initialise un lot en attente pour une liste de wallets
func NewBatchJob(wallets []string) *BatchJob {
	now := time.Now().UTC()
	return &BatchJob{
		ID:           uuid.NewString(),
		Status:       JobPending,
		Wallets:      wallets,
		TotalWallets: len(wallets),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Save enregistre l'état courant d'un lot
func (s *JobStore) Save(job *BatchJob) error {
	job.UpdatedAt = time.Now().UTC()
	return s.cache.SetJSON(jobKey(job.ID), job, s.ttl)
}

// Get récupère un lot par identifiant; (nil, nil) si inconnu
func (s *JobStore) Get(jobID string) (*BatchJob, error) {
	var job BatchJob
	err := s.cache.GetJSON(jobKey(jobID), &job)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	return &job, nil
}

func jobKey(jobID string) string {
	return fmt.Sprintf("analyser:job:%s", jobID)
}
