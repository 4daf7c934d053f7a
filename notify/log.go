package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes events to a zerolog logger.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(l *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

// Notify logs ev. Reset tokens are never written.
func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	if ev.Type == EventPasswordResetRequested {
		n.logger.Info().
			Str("event_id", ev.ID).
			Str("event", string(ev.Type)).
			Uint("user_id", ev.UserID).
			Msg("account event")
		return nil
	}
	n.logger.Info().
		Str("event_id", ev.ID).
		Str("event", string(ev.Type)).
		Uint("appointment_id", ev.AppointmentID).
		Uint("doctor_id", ev.DoctorID).
		Uint("patient_id", ev.PatientID).
		Str("status", string(ev.Status)).
		Time("date", ev.Date).
		Msg("appointment event")
	return nil
}
