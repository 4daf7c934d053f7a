package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/notify"
	"github.com/ariebrainware/medlink/scheduling"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recorder collects dispatched events.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	sched    *Scheduler
	events   *recorder
	patient  model.User
	other    model.User
	admin    model.User
	docUser  model.User
	doctor   model.Doctor
	hospital model.Hospital
}

func (f fixture) patientP() Principal { return Principal{UserID: f.patient.ID, RoleID: model.RoleIDUser} }
func (f fixture) otherP() Principal   { return Principal{UserID: f.other.ID, RoleID: model.RoleIDUser} }
func (f fixture) adminP() Principal   { return Principal{UserID: f.admin.ID, RoleID: model.RoleIDAdmin} }
func (f fixture) doctorP() Principal  { return Principal{UserID: f.docUser.ID, RoleID: model.RoleIDDoctor} }

// monday is 2026-10-19, a Monday.
func monday(hh, mm int) time.Time {
	return time.Date(2026, 10, 19, hh, mm, 0, 0, time.UTC)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	require.NoError(t, model.SeedRoles(db))
	return db
}

// newFixture seeds one patient, a second patient, an admin and a doctor
// working Mondays 09:00-11:00 at one hospital.
func newFixture(t *testing.T) fixture {
	t.Helper()
	db := openTestDB(t)
	f := fixture{db: db, events: &recorder{}}
	f.sched = NewScheduler(scheduling.NewGenerator(30*time.Minute, time.UTC), f.events)

	mk := func(name string, role uint32) model.User {
		u := model.User{Name: name, Email: name + "@example.com", RoleID: role}
		require.NoError(t, db.Create(&u).Error)
		return u
	}
	f.patient = mk("patient", model.RoleIDUser)
	f.other = mk("other", model.RoleIDUser)
	f.admin = mk("admin", model.RoleIDAdmin)
	f.docUser = mk("doctor", model.RoleIDDoctor)

	f.hospital = model.Hospital{Name: "RS Sehat", City: "Jakarta"}
	require.NoError(t, db.Create(&f.hospital).Error)
	f.doctor = model.Doctor{UserID: f.docUser.ID, Name: "Dr. Andi", City: "Jakarta", Hospitals: []model.Hospital{f.hospital}}
	require.NoError(t, db.Create(&f.doctor).Error)

	_, err := f.sched.ReplaceAvailability(context.Background(), db, f.doctor.ID, []model.AvailabilitySlotInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"},
	})
	require.NoError(t, err)
	return f
}

func (f fixture) book(t *testing.T, at time.Time) *model.Appointment {
	t.Helper()
	appt, err := f.sched.CreateAppointment(context.Background(), f.db, f.patientP(), model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID, HospitalID: f.hospital.ID, Date: at,
	})
	require.NoError(t, err)
	return appt
}
