package birdeye

import "time"

// ClientConfig contient la configuration du client Birdeye
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Chain          string
	RequestTimeout int
	RateLimitDelay time.Duration
	PageSize       int
	MaxSwaps       int
}

// Client est l'interface du client de données de marché
type Client interface {
	// GetTraderTxs récupère une page de l'historique de swaps d'un wallet,
	// les plus récents d'abord
	GetTraderTxs(walletAddress string, offset, limit int) (*TraderTxsResponse, error)

	// GetTokenPrice récupère le prix courant d'un token
	GetTokenPrice(tokenAddress string) (*PriceData, error)

	// GetTokenPrices récupère les prix courants d'un lot de tokens
	GetTokenPrices(tokenAddresses []string) (MultiPriceResponse, error)
}

// NewClient crée un nouveau client Birdeye
func NewClient(config ClientConfig) Client {
	return newClientImpl(config)
}
