package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

var _ inventory.EventPublisher = (*Publisher)(nil)

// Publisher adaptador Kafka del puerto EventPublisher (productor síncrono).
// Los topics llegan ya resueltos desde el motor (por artículo, por ubicación
// y difusión admin); el mensaje se keyea por topic para preservar el orden
// por partición.
type Publisher struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewPublisher conecta el productor síncrono contra los brokers indicados.
func NewPublisher(brokers []string, log *logger.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("crear productor Kafka: %w", err)
	}
	log.Info().Strs("brokers", brokers).Msg("publicador Kafka inicializado")
	return &Publisher{producer: producer, log: log}, nil
}

// NewPublisherFromProducer envuelve un productor ya construido (tests).
func NewPublisherFromProducer(producer sarama.SyncProducer, log *logger.Logger) *Publisher {
	return &Publisher{producer: producer, log: log}
}

// Publish serializa el payload a JSON y lo envía al topic.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(topic),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("enviar mensaje a Kafka: %w", err)
	}
	p.log.Debug().
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("evento publicado")
	return nil
}

// Close cierra el productor.
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
