package pipeline

import (
	"fmt"
)

// Orchestrator soumet les lots de wallets au pipeline et expose leur
// statut. Le plafond de wallets par lot est appliqué à la soumission.
type Orchestrator struct {
	pipeline   *Pipeline
	jobs       *JobStore
	maxWallets int
}

// NewOrchestrator crée un nouvel orchestrateur de lots
func NewOrchestrator(p *Pipeline, jobs *JobStore, maxWallets int) *Orchestrator {
	if maxWallets <= 0 {
		maxWallets = 50
	}
	return &Orchestrator{
		pipeline:   p,
		jobs:       jobs,
		maxWallets: maxWallets,
	}
}

// SubmitBatch valide une liste de wallets, crée le lot et le publie
// dans le stream d'analyse
func (o *Orchestrator) SubmitBatch(wallets []string) (*BatchJob, error) {
	if len(wallets) == 0 {
		return nil, fmt.Errorf("empty wallet list")
	}
	if len(wallets) > o.maxWallets {
		return nil, fmt.Errorf("too many wallets: %d (max %d)", len(wallets), o.maxWallets)
	}

	// Dédoublonnage en préservant l'ordre de soumission
	seen := make(map[string]bool, len(wallets))
	unique := make([]string, 0, len(wallets))
	for _, w := range wallets {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		unique = append(unique, w)
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("empty wallet list")
	}

	job := NewBatchJob(unique)
	if err := o.jobs.Save(job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	err := o.pipeline.PublishMessage(StreamWalletBatches, Message{
		Type: "wallet_batch",
		Payload: map[string]interface{}{
			"job_id": job.ID,
		},
	})
	if err != nil {
		job.Status = JobFailed
		job.Error = "failed to enqueue batch"
		_ = o.jobs.Save(job)
		return nil, err
	}

	return job, nil
}

// GetJob retourne l'état d'un lot; (nil, nil) si inconnu
func (o *Orchestrator) GetJob(jobID string) (*BatchJob, error) {
	return o.jobs.Get(jobID)
}
