package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/qr-ordering/tracking"
	"github.com/yeremiapane/qr-ordering/utils"
)

// OrderEventPublisher meneruskan perubahan order ke luar proses.
type OrderEventPublisher interface {
	PublishOrderChange(change tracking.Change) error
	Close() error
}

// KafkaPublisher mengirim setiap perubahan sebagai JSON, key = order ref
// supaya perubahan satu order tetap berurutan dalam satu partisi.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start Kafka producer: %w", err)
	}

	utils.InfoLogger.WithField("topic", topic).Info("Kafka producer connected")
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishOrderChange(change tracking.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode order change: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(change.OrderRef),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send order change to %s: %w", p.topic, err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"topic":     p.topic,
		"order_ref": change.OrderRef,
		"partition": partition,
		"offset":    offset,
	}).Debug("Order change published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
