package scheduling

import "fmt"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Actor is the kind of principal requesting a transition.
type Actor string

const (
	ActorPatient Actor = "PATIENT"
	ActorDoctor  Actor = "DOCTOR"
	ActorAdmin   Actor = "ADMIN"
)

type edge struct {
	from Status
	to   Status
}

// transitions lists every legal edge with the actors allowed to take it.
var transitions = map[edge][]Actor{
	{StatusPending, StatusConfirmed}:   {ActorDoctor, ActorAdmin},
	{StatusPending, StatusCancelled}:   {ActorDoctor, ActorAdmin, ActorPatient},
	{StatusConfirmed, StatusCompleted}: {ActorDoctor, ActorAdmin},
	{StatusConfirmed, StatusCancelled}: {ActorDoctor, ActorAdmin},
}

// ParseStatus validates a wire status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether an appointment in s still occupies its time slot.
func (s Status) Active() bool {
	return s != StatusCancelled
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to Status) bool {
	_, ok := transitions[edge{from, to}]
	return ok
}

// Allowed reports whether actor may move an appointment from → to.
// Ownership (the doctor or patient being party to the appointment) is the
// caller's concern.
func Allowed(actor Actor, from, to Status) bool {
	for _, a := range transitions[edge{from, to}] {
		if a == actor {
			return true
		}
	}
	return false
}

// NextStatuses lists the targets actor may move an appointment in from to,
// in a stable order. UIs use it to decide which buttons to show.
func NextStatuses(actor Actor, from Status) []Status {
	var out []Status
	for _, to := range []Status{StatusConfirmed, StatusCompleted, StatusCancelled} {
		if Allowed(actor, from, to) {
			out = append(out, to)
		}
	}
	return out
}
