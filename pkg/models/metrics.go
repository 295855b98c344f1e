package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// StyleKind est le style de trading dominant d'un wallet
type StyleKind int

const (
	StyleScalper StyleKind = iota
	StyleSwingTrader
	StyleLongTerm
	StyleMixed
)

// String retourne la représentation textuelle du style
func (s StyleKind) String() string {
	switch s {
	case StyleScalper:
		return "scalper"
	case StyleSwingTrader:
		return "swing_trader"
	case StyleLongTerm:
		return "long_term"
	case StyleMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// MarshalJSON sérialise le style sous forme de chaîne
func (s StyleKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON désérialise le style depuis sa forme chaîne
func (s *StyleKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "scalper":
		*s = StyleScalper
	case "swing_trader":
		*s = StyleSwingTrader
	case "long_term":
		*s = StyleLongTerm
	case "mixed":
		*s = StyleMixed
	default:
		return fmt.Errorf("unknown trading style %q", str)
	}
	return nil
}

// TradingStyle est le variant taggé du style de trading: Predominant
// n'est renseigné que lorsque Kind vaut StyleMixed
type TradingStyle struct {
	Kind        StyleKind  `json:"kind"`
	Predominant *StyleKind `json:"predominant,omitempty"`
}

// PnLCategory classe un trade apparié par pourcentage de P&L réalisé
type PnLCategory string

const (
	PnLHighlyProfitable PnLCategory = "highly_profitable"
	PnLProfitable       PnLCategory = "profitable"
	PnLModerateGain     PnLCategory = "moderate_gain"
	PnLBreakEven        PnLCategory = "break_even"
	PnLModerateLoss     PnLCategory = "moderate_loss"
	PnLSignificantLoss  PnLCategory = "significant_loss"
	PnLMajorLoss        PnLCategory = "major_loss"
)

// HoldCategory classe un trade apparié par durée de détention
type HoldCategory string

const (
	HoldScalp      HoldCategory = "scalp"
	HoldIntraday   HoldCategory = "intraday"
	HoldShortTerm  HoldCategory = "short_term"
	HoldMediumTerm HoldCategory = "medium_term"
	HoldLongTerm   HoldCategory = "long_term"
)

// RiskMetrics regroupe les métriques de risque dérivées du portfolio
type RiskMetrics struct {
	MaxPositionPercentage decimal.Decimal `json:"max_position_percentage"`
	DiversificationScore  decimal.Decimal `json:"diversification_score"`
	MaxConsecutiveLosses  int             `json:"max_consecutive_losses"`
	MaxWinStreak          int             `json:"max_win_streak"`
	AvgLossPerTrade       decimal.Decimal `json:"avg_loss_per_trade"`
	RiskAdjustedReturn    decimal.Decimal `json:"risk_adjusted_return"`
}

// DerivedMetrics regroupe les métriques de qualité copy-trading
type DerivedMetrics struct {
	TradingStyle TradingStyle `json:"trading_style"`
	Risk         RiskMetrics  `json:"risk"`

	// QualityScore est absent lorsque le scoring est désactivé
	QualityScore *int `json:"quality_score,omitempty"`

	PnLDistribution  map[PnLCategory]int  `json:"pnl_distribution"`
	HoldDistribution map[HoldCategory]int `json:"hold_distribution"`
}
