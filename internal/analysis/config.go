package analysis

import (
	"github.com/shopspring/decimal"
)

// Config contient les options reconnues par l'analyse d'un wallet.
// Les seuils numériques non renseignés reprennent les défauts de
// DefaultConfig; partir de DefaultConfig pour les options booléennes.
type Config struct {
	// PriceDeviationThreshold est la fraction au-delà de laquelle
	// nearest_price est préféré à price (défaut 0.25)
	PriceDeviationThreshold decimal.Decimal `mapstructure:"price_deviation_threshold"`

	// ExchangeCurrencyAddresses est une surcouche explicite de la liste
	// connue des devises d'échange
	ExchangeCurrencyAddresses []string `mapstructure:"exchange_currency_addresses"`

	// ExchangeCurrencyBehavioural active l'heuristique comportementale
	// de détection des devises d'échange
	ExchangeCurrencyBehavioural bool `mapstructure:"exchange_currency_behavioural"`

	// Seuils de l'heuristique comportementale
	BehaviouralMaxHoldMinutes decimal.Decimal `mapstructure:"behavioural_max_hold_minutes"`
	BehaviouralPnLEpsilonUSD  decimal.Decimal `mapstructure:"behavioural_pnl_epsilon_usd"`
	BehaviouralMinTrades      int             `mapstructure:"behavioural_min_trades"`

	// PhantomBuyOffsetSeconds est le décalage appliqué au timestamp des
	// achats fantômes (défaut 1)
	PhantomBuyOffsetSeconds int64 `mapstructure:"phantom_buy_offset_seconds"`

	// IgnoreSameSignSwaps: lorsque false, un swap malformé fait échouer
	// l'analyse au lieu d'être ignoré
	IgnoreSameSignSwaps bool `mapstructure:"ignore_same_sign_swaps"`

	// QualityScoreEnabled active le calcul du score de qualité
	QualityScoreEnabled bool `mapstructure:"quality_score_enabled"`

	// MaxTokenWorkers borne le nombre de tokens analysés en parallèle
	// pour un même wallet (0 = nombre de CPU)
	MaxTokenWorkers int `mapstructure:"max_token_workers"`
}

// DefaultConfig retourne la configuration d'analyse par défaut
func DefaultConfig() Config {
	return Config{
		PriceDeviationThreshold:     decimal.NewFromFloat(0.25),
		ExchangeCurrencyBehavioural: true,
		BehaviouralMaxHoldMinutes:   decimal.NewFromFloat(0.1),
		BehaviouralPnLEpsilonUSD:    decimal.NewFromInt(1),
		BehaviouralMinTrades:        2,
		PhantomBuyOffsetSeconds:     1,
		IgnoreSameSignSwaps:         true,
		QualityScoreEnabled:         true,
	}
}

// withDefaults remplace les champs non renseignés par les défauts
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PriceDeviationThreshold.IsZero() {
		c.PriceDeviationThreshold = d.PriceDeviationThreshold
	}
	if c.BehaviouralMaxHoldMinutes.IsZero() {
		c.BehaviouralMaxHoldMinutes = d.BehaviouralMaxHoldMinutes
	}
	if c.BehaviouralPnLEpsilonUSD.IsZero() {
		c.BehaviouralPnLEpsilonUSD = d.BehaviouralPnLEpsilonUSD
	}
	if c.BehaviouralMinTrades == 0 {
		c.BehaviouralMinTrades = d.BehaviouralMinTrades
	}
	if c.PhantomBuyOffsetSeconds == 0 {
		c.PhantomBuyOffsetSeconds = d.PhantomBuyOffsetSeconds
	}
	return c
}
