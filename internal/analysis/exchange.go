package analysis

import (
	"github.com/tytos-ai/analyser/pkg/models"
)

// knownExchangeCurrencies est la liste compilée des stablecoins, natifs
// wrappés et devises de cotation courantes sur Solana. Mise à jour
// manuelle lorsqu'une nouvelle devise de cotation devient dominante
// sur les DEX; la surcouche de configuration couvre l'intervalle.
var knownExchangeCurrencies = map[string]string{
	"So11111111111111111111111111111111111111112":  "WSOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj": "stSOL",
	"J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn": "jitoSOL",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm": "WIF",
	"27G8MtK7VtTcCHkpASjSDdkWWYfoqT6ggEuKidVJidD4": "JLP",
	"jupSoLaHXQiZZTSfEWMTRRgpnyFm8f6sZdosWBjx93v":  "jupSOL",
}

// ExchangeClassifier identifie les tokens utilisés comme devise d'échange
// (plomberie de swap) plutôt que comme décisions d'investissement
type ExchangeClassifier struct {
	cfg   Config
	known map[string]bool
}

// NewExchangeClassifier construit le classificateur à partir de la liste
// compilée et de la surcouche de configuration
func NewExchangeClassifier(cfg Config) *ExchangeClassifier {
	known := make(map[string]bool, len(knownExchangeCurrencies)+len(cfg.ExchangeCurrencyAddresses))
	for addr := range knownExchangeCurrencies {
		known[addr] = true
	}
	for _, addr := range cfg.ExchangeCurrencyAddresses {
		known[addr] = true
	}
	return &ExchangeClassifier{cfg: cfg.withDefaults(), known: known}
}

// IsKnown vérifie l'appartenance à la liste connue
func (c *ExchangeClassifier) IsKnown(tokenAddress string) bool {
	return c.known[tokenAddress]
}

// Classify marque un résultat de token comme devise d'échange s'il figure
// dans la liste connue ou s'il présente le comportement d'une devise de
// plomberie: détention quasi nulle, P&L quasi nul, au moins deux trades.
// Le filtre comportemental est une seconde passe, appliquée après le
// calcul per-token.
func (c *ExchangeClassifier) Classify(result *models.TokenResult) bool {
	if c.known[result.TokenAddress] {
		return true
	}

	if !c.cfg.ExchangeCurrencyBehavioural {
		return false
	}

	if result.TotalTrades < c.cfg.BehaviouralMinTrades {
		return false
	}
	if result.HoldTimeStats.AvgMinutes.GreaterThanOrEqual(c.cfg.BehaviouralMaxHoldMinutes) {
		return false
	}
	return result.TotalPnLUSD.Abs().LessThan(c.cfg.BehaviouralPnLEpsilonUSD)
}
