package client

import (
	"context"
	"sync"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/scheduling"
)

// AppointmentBook caches the caller's appointment list and re-reads it
// after every change.
type AppointmentBook struct {
	client   *Client
	asDoctor bool

	mu    sync.Mutex
	items []model.AppointmentView
}

// NewAppointmentBook lists the caller's own bookings, or the doctor schedule
// when asDoctor is set.
func (c *Client) NewAppointmentBook(asDoctor bool) *AppointmentBook {
	return &AppointmentBook{client: c, asDoctor: asDoctor}
}

func (b *AppointmentBook) Refresh(ctx context.Context) ([]model.AppointmentView, error) {
	items, err := b.client.MyAppointments(ctx, b.asDoctor)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.items = items
	b.mu.Unlock()
	return b.Items(), nil
}

// RefreshAppointments re-reads the list and logs instead of returning a
// failure; the previous list is kept.
func (b *AppointmentBook) RefreshAppointments(ctx context.Context) {
	if _, err := b.Refresh(ctx); err != nil {
		b.client.logger.Error().Err(err).Bool("as_doctor", b.asDoctor).Msg("failed to refresh appointments")
	}
}

func (b *AppointmentBook) Items() []model.AppointmentView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.AppointmentView(nil), b.items...)
}

// ChangeStatus moves an appointment and refreshes the list.
func (b *AppointmentBook) ChangeStatus(ctx context.Context, id uint, status scheduling.Status) (*model.AppointmentView, error) {
	appt, err := b.client.UpdateStatus(ctx, id, string(status))
	if err != nil {
		return nil, err
	}
	b.RefreshAppointments(ctx)
	return appt, nil
}

func (b *AppointmentBook) Cancel(ctx context.Context, id uint) (*model.AppointmentView, error) {
	return b.ChangeStatus(ctx, id, scheduling.StatusCancelled)
}

// Review rates a completed appointment and refreshes the list so
// has_reviewed_doctor is current.
func (b *AppointmentBook) Review(ctx context.Context, id uint, rating int, comment string) (*model.Review, error) {
	review, err := b.client.SubmitReview(ctx, model.ReviewRequest{AppointmentID: id, Rating: rating, Comment: comment})
	if err != nil {
		return nil, err
	}
	b.RefreshAppointments(ctx)
	return review, nil
}
