package doses

import (
	"sync"
	"time"
)

type Status string

const (
	StatusDue   Status = "Due"
	StatusGiven Status = "Given"
)

// Seed es lo que el engine necesita de cada paciente del roster.
type Seed struct {
	PatientID string
	Name      string
	Room      string
	Schedule  []string
	Cursor    int
}

// State es una copia del estado de dosis de un paciente.
type State struct {
	PatientID    string
	PatientName  string
	Room         string
	Schedule     []string
	Cursor       int
	Status       Status
	NextDoseTime *string // nil si no hay schedule
	LastGivenAt  *time.Time
}

// Outcome clasifica el resultado de un toggle de dosis.
type Outcome string

const (
	OutcomeGiven      Outcome = "given"
	OutcomeReverted   Outcome = "reverted"
	OutcomeTooEarly   Outcome = "too_early"
	OutcomeLocked     Outcome = "locked"
	OutcomeNoSchedule Outcome = "no_schedule"
)

type ActionResult struct {
	Success      bool
	Locked       bool
	Outcome      Outcome
	NewStatus    Status // solo si Success
	NextDoseTime *string
	LastGivenAt  *time.Time
	Message      string
}

// patientDose es el estado mutable; mu serializa todo acceso al paciente.
type patientDose struct {
	mu sync.Mutex

	id   string
	name string
	room string

	schedule    []TimeOfDay
	cursor      int
	status      Status
	next        *string
	lastGivenAt *time.Time

	// fecha civil (YYYY-MM-DD) de la última evaluación
	day string
}

func (p *patientDose) snapshot() State {
	labels := make([]string, 0, len(p.schedule))
	for _, t := range p.schedule {
		labels = append(labels, t.Label())
	}

	st := State{
		PatientID:   p.id,
		PatientName: p.name,
		Room:        p.room,
		Schedule:    labels,
		Cursor:      p.cursor,
		Status:      p.status,
	}
	if p.next != nil {
		n := *p.next
		st.NextDoseTime = &n
	}
	if p.lastGivenAt != nil {
		t := *p.lastGivenAt
		st.LastGivenAt = &t
	}
	return st
}
