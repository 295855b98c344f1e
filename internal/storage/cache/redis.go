package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/tytos-ai/analyser/pkg/models"
	"github.com/tytos-ai/analyser/pkg/utils/config"
)

// Redis encapsule le client Redis: cache de résultats, cache de prix
// courants et streams pour le pipeline de lots
type Redis struct {
	client *redis.Client
	ctx    context.Context
	logger *logrus.Logger
}

// XMessage est un message lu depuis un stream
type XMessage struct {
	ID     string
	Values map[string]interface{}
}

// NewRedisConnection crée une nouvelle connexion Redis
func NewRedisConnection(cfg *config.RedisConfig, logger *logrus.Logger) (*Redis, error) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("échec de la connexion à Redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
	}).Info("Connected to Redis")

	return &Redis{
		client: client,
		ctx:    ctx,
		logger: logger,
	}, nil
}

// Close ferme la connexion à Redis
func (r *Redis) Close() error {
	return r.client.Close()
}

// Set stocke une valeur dans le cache
func (r *Redis) Set(key string, value string, expiration time.Duration) error {
	return r.client.Set(r.ctx, key, value, expiration).Err()
}

// Get récupère une valeur du cache
func (r *Redis) Get(key string) (string, error) {
	return r.client.Get(r.ctx, key).Result()
}

// Delete supprime une clé du cache
func (r *Redis) Delete(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

// Exists vérifie si une clé existe
func (r *Redis) Exists(key string) (bool, error) {
	val, err := r.client.Exists(r.ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}

// SetJSON sérialise une structure en JSON dans le cache
func (r *Redis) SetJSON(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("échec de la sérialisation pour le cache: %w", err)
	}
	return r.client.Set(r.ctx, key, data, expiration).Err()
}

// GetJSON récupère et désérialise une structure JSON du cache
func (r *Redis) GetJSON(key string, value interface{}) error {
	data, err := r.client.Get(r.ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, value)
}

// IsNotFound indique si l'erreur correspond à une clé absente
func IsNotFound(err error) bool {
	return err == redis.Nil
}

// CachePortfolioResult met en cache le résultat d'analyse d'un wallet
func (r *Redis) CachePortfolioResult(result *models.PortfolioResult, ttl time.Duration) error {
	return r.SetJSON(portfolioKey(result.Wallet), result, ttl)
}

// GetCachedPortfolioResult récupère un résultat d'analyse en cache;
// (nil, nil) lorsque le wallet n'est pas en cache
func (r *Redis) GetCachedPortfolioResult(wallet string) (*models.PortfolioResult, error) {
	var result models.PortfolioResult
	err := r.GetJSON(portfolioKey(wallet), &result)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func portfolioKey(wallet string) string {
	return fmt.Sprintf("analyser:portfolio:%s", wallet)
}

// XAdd ajoute un message à un stream
func (r *Redis) XAdd(stream string, values map[string]interface{}) error {
	return r.client.XAdd(r.ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: values,
	}).Err()
}

// XGroupCreate crée un groupe de consommateurs pour un stream
func (r *Redis) XGroupCreate(stream, group string) error {
	exists, err := r.Exists(stream)
	if err != nil {
		return err
	}

	if !exists {
		// Créer le stream avec un message d'initialisation
		if err := r.XAdd(stream, map[string]interface{}{"init": "true"}); err != nil {
			return err
		}
	}

	err = r.client.XGroupCreate(r.ctx, stream, group, "$").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}

	return nil
}

// XAck acquitte un message dans un groupe de consommateurs
func (r *Redis) XAck(stream, group, messageID string) error {
	return r.client.XAck(r.ctx, stream, group, messageID).Err()
}

// XReadGroup lit des messages d'un stream pour un consommateur
func (r *Redis) XReadGroup(stream, group, consumer string, count int, timeout time.Duration) ([]XMessage, error) {
	result, err := r.client.XReadGroup(r.ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    int64(count),
		Block:    timeout,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			return []XMessage{}, nil
		}
		return nil, err
	}

	var messages []XMessage
	for _, s := range result {
		for _, m := range s.Messages {
			messages = append(messages, XMessage{
				ID:     m.ID,
				Values: m.Values,
			})
		}
	}

	return messages, nil
}
