package birdeye

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	http_client "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// clientImpl est l'implémentation concrète du client Birdeye
type clientImpl struct {
	config      ClientConfig
	tlsClient   tls_client.HttpClient
	lastRequest time.Time
}

// newClientImpl crée une nouvelle instance de l'implémentation du client
func newClientImpl(config ClientConfig) *clientImpl {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(config.RequestTimeout),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	tlsClient, _ := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)

	return &clientImpl{
		config:      config,
		tlsClient:   tlsClient,
		lastRequest: time.Now().Add(-config.RateLimitDelay),
	}
}

// getHeaders retourne les en-têtes HTTP des requêtes Birdeye
func (c *clientImpl) getHeaders() http_client.Header {
	return http_client.Header{
		"accept":       []string{"application/json"},
		"x-api-key":    []string{c.config.APIKey},
		"x-chain":      []string{c.config.Chain},
		"user-agent":   []string{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
		"content-type": []string{"application/json"},
	}
}

// makeRequest effectue une requête à l'API Birdeye en respectant le taux
// de requêtes, et vérifie l'enveloppe de réponse
func (c *clientImpl) makeRequest(requestURL string) (*Response, error) {
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.config.RateLimitDelay {
		time.Sleep(c.config.RateLimitDelay - elapsed)
	}
	c.lastRequest = time.Now()

	req, err := http_client.NewRequest(http_client.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("échec de la création de la requête: %w", err)
	}

	req.Header = c.getHeaders()
	resp, err := c.tlsClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("échec de la requête: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("échec de la lecture de la réponse: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		return nil, fmt.Errorf("réponse invalide du serveur (status %d)", resp.StatusCode)
	}

	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("échec de la désérialisation de la réponse: %w", err)
	}

	if !response.Success {
		return nil, fmt.Errorf("erreur API birdeye: %s (status %d)", response.Message, resp.StatusCode)
	}

	return &response, nil
}

// GetTraderTxs récupère une page de l'historique de swaps d'un wallet
func (c *clientImpl) GetTraderTxs(walletAddress string, offset, limit int) (*TraderTxsResponse, error) {
	requestURL := fmt.Sprintf("%s/trader/txs/seek_by_time?address=%s&offset=%d&limit=%d&tx_type=swap",
		c.config.BaseURL, url.QueryEscape(walletAddress), offset, limit)

	resp, err := c.makeRequest(requestURL)
	if err != nil {
		return nil, err
	}

	var txs TraderTxsResponse
	if err := json.Unmarshal(resp.Data, &txs); err != nil {
		return nil, fmt.Errorf("échec de la désérialisation des transactions: %w", err)
	}

	return &txs, nil
}

// GetTokenPrice récupère le prix courant d'un token
func (c *clientImpl) GetTokenPrice(tokenAddress string) (*PriceData, error) {
	requestURL := fmt.Sprintf("%s/defi/price?address=%s",
		c.config.BaseURL, url.QueryEscape(tokenAddress))

	resp, err := c.makeRequest(requestURL)
	if err != nil {
		return nil, err
	}

	var price PriceData
	if err := json.Unmarshal(resp.Data, &price); err != nil {
		return nil, fmt.Errorf("échec de la désérialisation du prix: %w", err)
	}

	return &price, nil
}

// GetTokenPrices récupère les prix courants d'un lot de tokens
func (c *clientImpl) GetTokenPrices(tokenAddresses []string) (MultiPriceResponse, error) {
	requestURL := fmt.Sprintf("%s/defi/multi_price?list_address=%s",
		c.config.BaseURL, url.QueryEscape(strings.Join(tokenAddresses, ",")))

	resp, err := c.makeRequest(requestURL)
	if err != nil {
		return nil, err
	}

	var prices MultiPriceResponse
	if err := json.Unmarshal(resp.Data, &prices); err != nil {
		return nil, fmt.Errorf("échec de la désérialisation des prix: %w", err)
	}

	return prices, nil
}
