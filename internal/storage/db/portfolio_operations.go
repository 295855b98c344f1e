package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tytos-ai/analyser/pkg/models"
)

// SavePortfolioResult enregistre le résultat complet d'analyse d'un
// wallet (document JSONB) ainsi que sa projection résumée
func (c *Connection) SavePortfolioResult(ctx context.Context, result *models.PortfolioResult, chain string) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("échec de la sérialisation du résultat: %w", err)
	}

	query := `
		INSERT INTO portfolio_results (
			wallet_address, chain, result, analyzed_at
		) VALUES (
			$1, $2, $3, $4
		) ON CONFLICT (wallet_address, chain) DO UPDATE SET
			result = $3,
			analyzed_at = $4
	`

	_, err = c.pool.Exec(ctx, query,
		result.Wallet,
		chain,
		payload,
		result.AnalysisTimestamp,
	)
	if err != nil {
		return fmt.Errorf("échec de l'enregistrement du résultat de portfolio: %w", err)
	}

	return c.saveResultSummary(ctx, result, chain)
}

// saveResultSummary met à jour la projection résumée, chemin de lecture
// autoritaire des listes de résultats
func (c *Connection) saveResultSummary(ctx context.Context, result *models.PortfolioResult, chain string) error {
	query := `
		INSERT INTO result_summaries (
			wallet_address, chain, total_pnl_usd, win_rate, roi_percentage,
			total_trades, incomplete_trades_count, analyzed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) ON CONFLICT (wallet_address, chain) DO UPDATE SET
			total_pnl_usd = $3,
			win_rate = $4,
			roi_percentage = $5,
			total_trades = $6,
			incomplete_trades_count = $7,
			analyzed_at = $8
	`

	var roi *string
	if result.ProfitPercentage != nil {
		s := result.ProfitPercentage.String()
		roi = &s
	}

	_, err := c.pool.Exec(ctx, query,
		result.Wallet,
		chain,
		result.TotalPnLUSD.String(),
		result.OverallWinRatePercentage.String(),
		roi,
		result.TotalTrades,
		result.IncompleteTradesCount,
		result.AnalysisTimestamp,
	)
	if err != nil {
		return fmt.Errorf("échec de l'enregistrement du résumé de résultat: %w", err)
	}

	return nil
}

// GetPortfolioResult récupère le résultat complet d'un wallet;
// (nil, nil) lorsqu'aucune analyse n'existe
func (c *Connection) GetPortfolioResult(ctx context.Context, wallet, chain string) (*models.PortfolioResult, error) {
	query := `
		SELECT result
		FROM portfolio_results
		WHERE wallet_address = $1 AND chain = $2
	`

	var payload []byte
	err := c.pool.QueryRow(ctx, query, wallet, chain).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("échec de la récupération du résultat de portfolio: %w", err)
	}

	var result models.PortfolioResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("échec de la désérialisation du résultat: %w", err)
	}

	return &result, nil
}

// ListResultSummaries récupère les résumés de résultats triés par P&L
// total décroissant
func (c *Connection) ListResultSummaries(ctx context.Context, chain string, limit int) ([]models.ResultSummary, error) {
	query := `
		SELECT wallet_address, chain, total_pnl_usd, win_rate, roi_percentage,
			total_trades, incomplete_trades_count, analyzed_at
		FROM result_summaries
		WHERE chain = $1
		ORDER BY total_pnl_usd::numeric DESC
		LIMIT $2
	`

	rows, err := c.pool.Query(ctx, query, chain, limit)
	if err != nil {
		return nil, fmt.Errorf("échec de la récupération des résumés: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.ResultSummary, 0)

	for rows.Next() {
		var summary models.ResultSummary
		var totalPnL, winRate string
		var roi *string

		err := rows.Scan(
			&summary.Wallet,
			&summary.Chain,
			&totalPnL,
			&winRate,
			&roi,
			&summary.TotalTrades,
			&summary.IncompleteTradesCount,
			&summary.AnalyzedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("échec du scan des résumés: %w", err)
		}

		summary.TotalPnLUSD, err = decimal.NewFromString(totalPnL)
		if err != nil {
			return nil, fmt.Errorf("total_pnl_usd invalide pour %s: %w", summary.Wallet, err)
		}
		summary.WinRate, err = decimal.NewFromString(winRate)
		if err != nil {
			return nil, fmt.Errorf("win_rate invalide pour %s: %w", summary.Wallet, err)
		}
		if roi != nil {
			parsed, err := decimal.NewFromString(*roi)
			if err != nil {
				return nil, fmt.Errorf("roi_percentage invalide pour %s: %w", summary.Wallet, err)
			}
			summary.ROIPercentage = &parsed
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erreur pendant l'itération sur les résumés: %w", err)
	}

	return summaries, nil
}
