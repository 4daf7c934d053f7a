package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the notifier needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaNotifier writes events to a topic keyed by doctor id, so each
// doctor's events keep their order within a partition. Account events
// carry no doctor and are keyed "user:<id>".
type KafkaNotifier struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewKafkaNotifier(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w, timeout: 5 * time.Second}
}

func (n *KafkaNotifier) Notify(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	key := strconv.FormatUint(uint64(ev.DoctorID), 10)
	if ev.DoctorID == 0 && ev.UserID != 0 {
		key = "user:" + strconv.FormatUint(uint64(ev.UserID), 10)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("could not write message: %w", err)
	}
	return nil
}
