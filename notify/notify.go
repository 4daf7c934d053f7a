// Package notify fans appointment lifecycle events out to log, Redis pub/sub
// or Kafka. Delivery is best effort: a failed notification never undoes the
// booking that produced it.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ariebrainware/medlink/config"
	"github.com/ariebrainware/medlink/scheduling"
	"github.com/ariebrainware/medlink/util"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// EventType names what happened to an appointment or account.
type EventType string

const (
	EventAppointmentCreated     EventType = "appointment.created"
	EventStatusChanged          EventType = "appointment.status_changed"
	EventReviewSubmitted        EventType = "review.submitted"
	EventPasswordResetRequested EventType = "password.reset_requested"
)

// Event is the payload delivered to every sink.
type Event struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	AppointmentID uint              `json:"appointment_id"`
	DoctorID      uint              `json:"doctor_id"`
	PatientID     uint              `json:"patient_id"`
	Status        scheduling.Status `json:"status,omitempty"`
	PreviousState scheduling.Status `json:"previous_status,omitempty"`
	Date          time.Time         `json:"date"`
	OccurredAt    time.Time         `json:"occurred_at"`

	// Account events only. ResetToken is the raw token a mailer puts in
	// the reset link; sinks that only log must not print it.
	UserID     uint   `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	ResetToken string `json:"reset_token,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(t EventType) Event {
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: time.Now().UTC()}
}

// Notifier delivers events to one destination.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Multi delivers to every notifier and reports the first failure.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Dispatch sends ev through n and logs instead of returning a failure.
// Delivery is detached from ctx's cancellation so a client hanging up
// after its booking committed does not drop the notification.
func Dispatch(ctx context.Context, n Notifier, ev Event) {
	if n == nil {
		return
	}
	if err := n.Notify(context.WithoutCancel(ctx), ev); err != nil {
		util.Logger().Warn().Err(err).
			Str("event", string(ev.Type)).
			Uint("appointment_id", ev.AppointmentID).
			Msg("notification failed")
	}
}

// New builds the notifier selected by cfg.Notifier ("log", "redis" or
// "kafka"). The log sink is always included so events stay visible when a
// broker is down. rdb may be nil unless "redis" is selected.
func New(cfg *config.Config, rdb *redis.Client) (Notifier, func() error, error) {
	logSink := NewLogNotifier(util.Logger())
	noop := func() error { return nil }

	switch cfg.Notifier {
	case "", "log":
		return logSink, noop, nil
	case "redis":
		if rdb == nil {
			return nil, nil, fmt.Errorf("redis notifier selected but redis is not connected")
		}
		return Multi{logSink, NewRedisNotifier(rdb, "")}, noop, nil
	case "kafka":
		w, err := config.NewKafkaWriter(cfg)
		if err != nil {
			return nil, nil, err
		}
		// Async writes keep a slow or down broker off the request path;
		// delivery failures surface through Completion instead.
		w.Async = true
		w.Completion = logKafkaCompletion
		return Multi{logSink, NewKafkaNotifier(w)}, w.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
}

func logKafkaCompletion(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	util.Logger().Warn().Err(err).Int("messages", len(msgs)).Msg("kafka notification delivery failed")
}
