package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/notify"
	"github.com/ariebrainware/medlink/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t)

	jakarta := time.FixedZone("WIB", 7*3600)
	appt := f.book(t, monday(10, 0).In(jakarta))

	assert.Equal(t, scheduling.StatusPending, appt.Status)
	assert.True(t, appt.Date.Equal(monday(10, 0)))
	assert.Equal(t, f.patient.ID, appt.PatientID)
	require.NotNil(t, appt.Doctor)
	assert.Equal(t, "Dr. Andi", appt.Doctor.Name)
	require.NotNil(t, appt.Hospital)
	assert.Equal(t, []notify.EventType{notify.EventAppointmentCreated}, f.events.types())
}

func TestCreateAppointment_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := model.Hospital{Name: "RS Lain", City: "Bandung"}
	require.NoError(t, f.db.Create(&other).Error)

	cases := []struct {
		name   string
		caller Principal
		req    model.CreateAppointmentRequest
		want   ErrorType
	}{
		{"doctor cannot book", f.doctorP(), model.CreateAppointmentRequest{DoctorID: f.doctor.ID, HospitalID: f.hospital.ID, Date: monday(9, 0)}, ErrorTypeForbidden},
		{"unknown doctor", f.patientP(), model.CreateAppointmentRequest{DoctorID: 9999, HospitalID: f.hospital.ID, Date: monday(9, 0)}, ErrorTypeNotFound},
		{"unknown hospital", f.patientP(), model.CreateAppointmentRequest{DoctorID: f.doctor.ID, HospitalID: 9999, Date: monday(9, 0)}, ErrorTypeNotFound},
		{"hospital not attached", f.patientP(), model.CreateAppointmentRequest{DoctorID: f.doctor.ID, HospitalID: other.ID, Date: monday(9, 0)}, ErrorTypeValidation},
		{"off grid", f.patientP(), model.CreateAppointmentRequest{DoctorID: f.doctor.ID, HospitalID: f.hospital.ID, Date: monday(9, 15)}, ErrorTypeConflict},
		{"last slot overflows window", f.patientP(), model.CreateAppointmentRequest{DoctorID: f.doctor.ID, HospitalID: f.hospital.ID, Date: monday(11, 0)}, ErrorTypeConflict},
		{"wrong weekday", f.patientP(), model.CreateAppointmentRequest{DoctorID: f.doctor.ID, HospitalID: f.hospital.ID, Date: monday(9, 0).AddDate(0, 0, 1)}, ErrorTypeConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.sched.CreateAppointment(ctx, f.db, tc.caller, tc.req)
			require.Error(t, err)
			assert.True(t, IsType(err, tc.want), "got %v", err)
		})
	}
	assert.Empty(t, f.events.types())
}

func TestCreateAppointment_DoubleBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, monday(9, 0))

	_, err := f.sched.CreateAppointment(ctx, f.db, f.otherP(), model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID, HospitalID: f.hospital.ID, Date: monday(9, 0),
	})
	assert.True(t, IsType(err, ErrorTypeConflict))
}

func TestCreateAppointment_ConcurrentBookingsOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.sched.CreateAppointment(ctx, f.db, f.patientP(), model.CreateAppointmentRequest{
				DoctorID: f.doctor.ID, HospitalID: f.hospital.ID, Date: monday(10, 30),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, IsType(err, ErrorTypeConflict), "got %v", err)
	}
	assert.Equal(t, 1, wins)

	var count int64
	require.NoError(t, f.db.Model(&model.Appointment{}).Where("doctor_id = ?", f.doctor.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateAppointment_CancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.book(t, monday(9, 0))

	_, err := f.sched.UpdateStatus(ctx, f.db, f.patientP(), first.ID, "CANCELLED")
	require.NoError(t, err)

	second, err := f.sched.CreateAppointment(ctx, f.db, f.otherP(), model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID, HospitalID: f.hospital.ID, Date: monday(9, 0),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, monday(9, 0))

	got, err := f.sched.UpdateStatus(ctx, f.db, f.doctorP(), appt.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, scheduling.StatusConfirmed, got.Status)

	// Patients cannot cancel once confirmed.
	_, err = f.sched.UpdateStatus(ctx, f.db, f.patientP(), appt.ID, "CANCELLED")
	assert.True(t, IsType(err, ErrorTypeForbidden))

	got, err = f.sched.UpdateStatus(ctx, f.db, f.adminP(), appt.ID, "COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, scheduling.StatusCompleted, got.Status)

	// Terminal.
	_, err = f.sched.UpdateStatus(ctx, f.db, f.adminP(), appt.ID, "CANCELLED")
	assert.True(t, IsType(err, ErrorTypeConflict))

	assert.Equal(t, []notify.EventType{
		notify.EventAppointmentCreated,
		notify.EventStatusChanged,
		notify.EventStatusChanged,
	}, f.events.types())
	last := f.events.events[2]
	assert.Equal(t, scheduling.StatusCompleted, last.Status)
	assert.Equal(t, scheduling.StatusConfirmed, last.PreviousState)
}

func TestUpdateStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, monday(9, 0))

	_, err := f.sched.UpdateStatus(ctx, f.db, f.patientP(), appt.ID, "DONE")
	assert.True(t, IsType(err, ErrorTypeValidation))

	_, err = f.sched.UpdateStatus(ctx, f.db, f.patientP(), 9999, "CANCELLED")
	assert.True(t, IsType(err, ErrorTypeNotFound))

	_, err = f.sched.UpdateStatus(ctx, f.db, f.otherP(), appt.ID, "CANCELLED")
	assert.True(t, IsType(err, ErrorTypeForbidden))

	_, err = f.sched.UpdateStatus(ctx, f.db, f.patientP(), appt.ID, "CONFIRMED")
	assert.True(t, IsType(err, ErrorTypeForbidden))

	_, err = f.sched.UpdateStatus(ctx, f.db, f.doctorP(), appt.ID, "PENDING")
	assert.True(t, IsType(err, ErrorTypeConflict))

	_, err = f.sched.UpdateStatus(ctx, f.db, f.doctorP(), appt.ID, "COMPLETED")
	assert.True(t, IsType(err, ErrorTypeConflict))

	// A doctor who does not own the appointment is a stranger.
	strangerUser := model.User{Name: "x", Email: "x@example.com", RoleID: model.RoleIDDoctor}
	require.NoError(t, f.db.Create(&strangerUser).Error)
	require.NoError(t, f.db.Create(&model.Doctor{UserID: strangerUser.ID, Name: "Dr. X"}).Error)
	_, err = f.sched.UpdateStatus(ctx, f.db, Principal{UserID: strangerUser.ID, RoleID: model.RoleIDDoctor}, appt.ID, "CONFIRMED")
	assert.True(t, IsType(err, ErrorTypeForbidden))
}

func TestListAppointmentsForActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	early := f.book(t, monday(9, 0))
	late := f.book(t, monday(10, 0))

	mine, err := f.sched.ListAppointmentsForActor(ctx, f.db, f.patientP(), "")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, late.ID, mine[0].ID)
	assert.Equal(t, early.ID, mine[1].ID)
	assert.False(t, mine[0].HasReviewedDoctor)

	none, err := f.sched.ListAppointmentsForActor(ctx, f.db, f.otherP(), "")
	require.NoError(t, err)
	assert.Empty(t, none)

	asDoctor, err := f.sched.ListAppointmentsForActor(ctx, f.db, f.doctorP(), "DOCTOR")
	require.NoError(t, err)
	assert.Len(t, asDoctor, 2)
	require.NotNil(t, asDoctor[0].Patient)
	assert.Equal(t, f.patient.Email, asDoctor[0].Patient.Email)

	_, err = f.sched.ListAppointmentsForActor(ctx, f.db, f.patientP(), "DOCTOR")
	assert.True(t, IsType(err, ErrorTypeForbidden))
}
