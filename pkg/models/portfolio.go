package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchedTrade est le résultat de l'appariement d'une tranche de vente
// contre une tranche d'achat
type MatchedTrade struct {
	TokenAddress    string          `json:"token_address"`
	TokenSymbol     string          `json:"token_symbol"`
	Buy             FinancialEvent  `json:"buy"`
	Sell            FinancialEvent  `json:"sell"`
	QuantityMatched decimal.Decimal `json:"quantity_matched"`
	RealizedPnLUSD  decimal.Decimal `json:"realized_pnl_usd"`
	HoldTimeSeconds int64           `json:"hold_time_seconds"`
}

// UnmatchedSell est une vente (ou la fraction d'une vente) sans achat
// correspondant dans le flux d'événements
type UnmatchedSell struct {
	Sell              FinancialEvent  `json:"sell"`
	UnmatchedQuantity decimal.Decimal `json:"unmatched_quantity"`
	PhantomBuyPrice   decimal.Decimal `json:"phantom_buy_price"`
}

// RemainingPosition est la somme des lots d'achat non consommés d'un token
type RemainingPosition struct {
	Quantity          decimal.Decimal `json:"quantity"`
	AvgCostBasisUSD   decimal.Decimal `json:"avg_cost_basis_usd"`
	TotalCostBasisUSD decimal.Decimal `json:"total_cost_basis_usd"`
}

// HoldTimeStats contient les statistiques de durée de détention en minutes
type HoldTimeStats struct {
	AvgMinutes decimal.Decimal `json:"avg_minutes"`
	MinMinutes decimal.Decimal `json:"min_minutes"`
	MaxMinutes decimal.Decimal `json:"max_minutes"`
}

// TokenResult contient le résultat de l'analyse FIFO d'un token
type TokenResult struct {
	TokenAddress      string            `json:"token_address"`
	TokenSymbol       string            `json:"token_symbol"`
	MatchedTrades     []MatchedTrade    `json:"matched_trades"`
	UnmatchedSells    []UnmatchedSell   `json:"unmatched_sells"`
	RemainingPosition RemainingPosition `json:"remaining_position"`

	RealizedPnLUSD   decimal.Decimal `json:"realized_pnl_usd"`
	UnrealizedPnLUSD decimal.Decimal `json:"unrealized_pnl_usd"`
	TotalPnLUSD      decimal.Decimal `json:"total_pnl_usd"`

	TotalTrades       int             `json:"total_trades"`
	WinningTrades     int             `json:"winning_trades"`
	LosingTrades      int             `json:"losing_trades"`
	WinRatePercentage decimal.Decimal `json:"win_rate_percentage"`

	HoldTimeStats HoldTimeStats `json:"hold_time_stats"`

	// Totaux investis/retournés du token, hors achats fantômes.
	// Utilisés par l'agrégation portfolio, qui exclut les devises d'échange.
	InvestedUSD decimal.Decimal `json:"invested_usd"`
	ReturnedUSD decimal.Decimal `json:"returned_usd"`

	// IsExchangeCurrency est posé par le classificateur (liste connue ou
	// heuristique comportementale)
	IsExchangeCurrency bool `json:"is_exchange_currency"`

	EventsProcessed int `json:"events_processed"`
}

// WarningKind identifie la classe d'un avertissement d'analyse
type WarningKind string

const (
	WarningMalformedSwap       WarningKind = "malformed_swap"
	WarningPriceAnomaly        WarningKind = "price_anomaly"
	WarningMissingCurrentPrice WarningKind = "missing_current_price"
)

// Warning est une condition récupérable rencontrée pendant l'analyse
type Warning struct {
	Kind         WarningKind `json:"kind"`
	TxHash       string      `json:"tx_hash,omitempty"`
	TokenAddress string      `json:"token_address,omitempty"`
	Message      string      `json:"message"`
}

// PortfolioResult est le résultat complet de l'analyse d'un wallet
type PortfolioResult struct {
	Wallet       string                  `json:"wallet"`
	TokenResults map[string]*TokenResult `json:"token_results"`

	TotalRealizedPnLUSD   decimal.Decimal `json:"total_realized_pnl_usd"`
	TotalUnrealizedPnLUSD decimal.Decimal `json:"total_unrealized_pnl_usd"`
	TotalPnLUSD           decimal.Decimal `json:"total_pnl_usd"`

	TotalInvestedUSD decimal.Decimal `json:"total_invested_usd"`
	TotalReturnedUSD decimal.Decimal `json:"total_returned_usd"`

	// ProfitPercentage est absent lorsque total_invested_usd vaut zéro
	ProfitPercentage *decimal.Decimal `json:"profit_percentage,omitempty"`

	TotalTrades              int             `json:"total_trades"`
	OverallWinRatePercentage decimal.Decimal `json:"overall_win_rate_percentage"`
	AvgHoldTimeMinutes       decimal.Decimal `json:"avg_hold_time_minutes"`

	TokensAnalyzed  int `json:"tokens_analyzed"`
	EventsProcessed int `json:"events_processed"`

	CurrentWinningStreak int `json:"current_winning_streak"`
	LongestWinningStreak int `json:"longest_winning_streak"`
	CurrentLosingStreak  int `json:"current_losing_streak"`
	LongestLosingStreak  int `json:"longest_losing_streak"`

	IncompleteTradesCount int `json:"incomplete_trades_count"`

	Metrics *DerivedMetrics `json:"metrics,omitempty"`

	Warnings []Warning `json:"warnings,omitempty"`

	AnalysisTimestamp time.Time `json:"analysis_timestamp"`
}

// ResultSummary est la projection persistée utilisée pour les listes
// de résultats; le portfolio complet n'est chargé qu'en vue détail
type ResultSummary struct {
	Wallet                string           `json:"wallet"`
	TotalPnLUSD           decimal.Decimal  `json:"total_pnl_usd"`
	WinRate               decimal.Decimal  `json:"win_rate"`
	ROIPercentage         *decimal.Decimal `json:"roi_percentage,omitempty"`
	TotalTrades           int              `json:"total_trades"`
	IncompleteTradesCount int              `json:"incomplete_trades_count"`
	Chain                 string           `json:"chain"`
	AnalyzedAt            time.Time        `json:"analyzed_at"`
}
