package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tytos-ai/analyser/internal/storage/cache"
)

// StreamWalletBatches est le stream des lots de wallets à analyser
const StreamWalletBatches = "wallet_batches"

// Pipeline gère la consommation des streams redis par les processeurs
type Pipeline struct {
	cache      *cache.Redis
	logger     *logrus.Logger
	processors map[string]Processor
	stopped    bool
}

// Processor est l'interface des processeurs de messages
type Processor interface {
	Process(ctx context.Context, message Message) error
	GetName() string
}

// Message représente un message à traiter dans le pipeline
type Message struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// NewPipeline crée un nouveau pipeline
func NewPipeline(cache *cache.Redis, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		cache:      cache,
		logger:     logger,
		processors: make(map[string]Processor),
		stopped:    true,
	}
}

// Start démarre les consommateurs du pipeline
func (p *Pipeline) Start(ctx context.Context) error {
	p.logger.Info("Starting pipeline")
	p.stopped = false

	for stream, processor := range p.processors {
		go p.startConsumer(ctx, stream, processor)
	}

	return nil
}

// Shutdown arrête le pipeline
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.logger.Info("Shutting down pipeline")
	p.stopped = true
	// Laisser les consommateurs observer l'arrêt
	time.Sleep(500 * time.Millisecond)
	return nil
}

// RegisterProcessor enregistre un processeur sur le stream du même nom
func (p *Pipeline) RegisterProcessor(stream string, processor Processor) {
	p.processors[stream] = processor
	p.logger.WithFields(logrus.Fields{
		"stream":    stream,
		"processor": processor.GetName(),
	}).Info("Processor registered")
}

// PublishMessage publie un message dans un stream
func (p *Pipeline) PublishMessage(streamName string, message Message) error {
	if message.ID == "" {
		message.ID = fmt.Sprintf("msg_%d", time.Now().UnixNano())
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}

	values := map[string]interface{}{
		"id":        message.ID,
		"type":      message.Type,
		"timestamp": message.Timestamp.Format(time.RFC3339),
	}
	for k, v := range message.Payload {
		switch val := v.(type) {
		case string:
			values[k] = val
		default:
			// Les structures complexes voyagent sérialisées en JSON
			jsonBytes, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("failed to marshal payload field %s: %w", k, err)
			}
			values[k] = string(jsonBytes)
		}
	}

	if err := p.cache.XAdd(streamName, values); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"stream": streamName,
		"msg_id": message.ID,
		"type":   message.Type,
	}).Debug("Message published")

	return nil
}

// startConsumer démarre la boucle de consommation d'un processeur
func (p *Pipeline) startConsumer(ctx context.Context, streamName string, processor Processor) {
	p.logger.WithFields(logrus.Fields{
		"stream":    streamName,
		"processor": processor.GetName(),
	}).Info("Starting consumer")

	err := p.cache.XGroupCreate(streamName, processor.GetName())
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		p.logger.WithFields(logrus.Fields{
			"stream":    streamName,
			"processor": processor.GetName(),
			"error":     err.Error(),
		}).Error("Failed to create consumer group")
		return
	}

	for !p.stopped {
		select {
		case <-ctx.Done():
			return
		default:
			messages, err := p.cache.XReadGroup(streamName, processor.GetName(), "consumer1", 10, 1*time.Second)
			if err != nil {
				if !cache.IsNotFound(err) {
					p.logger.WithFields(logrus.Fields{
						"stream":    streamName,
						"processor": processor.GetName(),
						"error":     err.Error(),
					}).Error("Error reading from stream")
				}
				time.Sleep(100 * time.Millisecond)
				continue
			}

			for _, msg := range messages {
				message := decodeMessage(msg)

				if err := processor.Process(ctx, message); err != nil {
					p.logger.WithFields(logrus.Fields{
						"stream":    streamName,
						"processor": processor.GetName(),
						"msg_id":    msg.ID,
						"error":     err.Error(),
					}).Error("Error processing message")
					// Pas d'ACK: le message reste en attente dans le
					// groupe; ce consommateur ne lit que les nouveaux
					// messages et ne le relit pas
					continue
				}

				if err := p.cache.XAck(streamName, processor.GetName(), msg.ID); err != nil {
					p.logger.WithFields(logrus.Fields{
						"stream": streamName,
						"msg_id": msg.ID,
						"error":  err.Error(),
					}).Error("Error acknowledging message")
				}
			}
		}
	}
}

// decodeMessage reconstruit un Message depuis les valeurs brutes du stream
func decodeMessage(msg cache.XMessage) Message {
	message := Message{
		ID:        msg.ID,
		Timestamp: time.Now(),
		Payload:   make(map[string]interface{}),
	}

	for k, v := range msg.Values {
		strVal, ok := v.(string)
		if !ok {
			message.Payload[k] = v
			continue
		}

		switch k {
		case "id":
			message.ID = strVal
		case "type":
			message.Type = strVal
		case "timestamp":
			if ts, err := time.Parse(time.RFC3339, strVal); err == nil {
				message.Timestamp = ts
			}
		default:
			if strings.HasPrefix(strVal, "{") || strings.HasPrefix(strVal, "[") {
				var obj interface{}
				if err := json.Unmarshal([]byte(strVal), &obj); err == nil {
					message.Payload[k] = obj
					continue
				}
			}
			message.Payload[k] = strVal
		}
	}

	return message
}
