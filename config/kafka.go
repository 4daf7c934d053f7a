package config

import (
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const defaultKafkaTopic = "medlink.appointments"

// NewKafkaWriter builds a producer for appointment notifications from the loaded config.
// It returns an error when no brokers are configured.
func NewKafkaWriter(cfg *Config) (*kafka.Writer, error) {
	if cfg == nil || len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is not configured")
	}
	topic := cfg.KafkaTopic
	if topic == "" {
		topic = defaultKafkaTopic
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}, nil
}
