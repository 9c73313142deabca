package doses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medidispense/internal/domain/history"
	"medidispense/internal/platform/clock"
	"medidispense/internal/platform/logger"
	"medidispense/internal/platform/metrics"

	"github.com/google/uuid"
)

// DefaultLockMinutes: minutos después de la hora programada en los que la
// dosis todavía se puede marcar como dada.
const DefaultLockMinutes = 2

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrNoSchedule      = errors.New("no schedule")
)

// History es lo que el engine usa del historial.
type History interface {
	Append(ctx context.Context, patientID string, e history.Entry)
	Latest(patientID, doseTime, date string) (history.Entry, bool)
}

type Options struct {
	LockMinutes int // <= 0 => DefaultLockMinutes
	Clock       clock.Clock
	Logger      logger.Logger
}

// Engine es la máquina de estados de ventanas de dosis.
// Cada paciente tiene su propio mutex; pacientes distintos no se bloquean entre sí.
type Engine struct {
	byID  map[string]*patientDose
	order []string

	history History
	clock   clock.Clock
	lock    time.Duration
	log     logger.Logger
	newID   func() string
}

func NewEngine(seeds []Seed, hist History, opts Options) (*Engine, error) {
	lockMin := opts.LockMinutes
	if lockMin <= 0 {
		lockMin = DefaultLockMinutes
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}

	e := &Engine{
		byID:    make(map[string]*patientDose, len(seeds)),
		order:   make([]string, 0, len(seeds)),
		history: hist,
		clock:   clk,
		lock:    time.Duration(lockMin) * time.Minute,
		log:     l.With(map[string]any{"component": "doses"}),
		newID:   uuid.NewString,
	}

	for _, s := range seeds {
		id := strings.TrimSpace(s.PatientID)
		if id == "" {
			return nil, fmt.Errorf("doses: seed without patient id")
		}
		if _, dup := e.byID[id]; dup {
			return nil, fmt.Errorf("doses: duplicate patient %q", id)
		}
		schedule, err := parseSchedule(s.Schedule)
		if err != nil {
			return nil, fmt.Errorf("doses: patient %s: %w", id, err)
		}

		p := &patientDose{
			id:       id,
			name:     s.Name,
			room:     s.Room,
			schedule: schedule,
			cursor:   s.Cursor,
			status:   StatusDue,
		}
		p.normalizeCursor()
		if len(schedule) > 0 {
			n := schedule[p.cursor].Label()
			p.next = &n
		}

		e.byID[id] = p
		e.order = append(e.order, id)
	}
	return e, nil
}

func (e *Engine) Now() time.Time { return e.clock.Now() }

func (e *Engine) LockWindow() time.Duration { return e.lock }

// PatientIDs en orden de roster.
func (e *Engine) PatientIDs() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

func (e *Engine) patient(id string) (*patientDose, error) {
	p, ok := e.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

// Snapshot devuelve el estado sin evaluar ventanas.
func (e *Engine) Snapshot(patientID string) (State, error) {
	p, err := e.patient(patientID)
	if err != nil {
		return State{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot(), nil
}

// Refresh re-evalúa el schedule contra now: registra Missed y avanza el
// cursor por cada slot expirado. Es idempotente para un mismo now.
func (e *Engine) Refresh(ctx context.Context, patientID string, now time.Time) (State, error) {
	p, err := e.patient(patientID)
	if err != nil {
		return State{}, err
	}
	now = clock.Minute(now)

	p.mu.Lock()
	defer p.mu.Unlock()

	e.refreshLocked(ctx, p, now)
	return p.snapshot(), nil
}

// RefreshAll refresca a todos los pacientes en orden de roster.
func (e *Engine) RefreshAll(ctx context.Context, now time.Time) []State {
	out := make([]State, 0, len(e.order))
	for _, id := range e.order {
		st, err := e.Refresh(ctx, id, now)
		if err != nil {
			continue
		}
		out = append(out, st)
	}
	return out
}

// RecordDoseAction alterna Due <-> Given del slot del cursor.
// Antes de la hora => TooEarly. Pasada la ventana => se procesa la
// expiración y se informa Locked con la nueva próxima dosis; el status no cambia.
// El cursor no avanza en un toggle exitoso: eso ocurre cuando la ventana vence.
func (e *Engine) RecordDoseAction(ctx context.Context, patientID string, now time.Time) (ActionResult, error) {
	p, err := e.patient(patientID)
	if err != nil {
		return ActionResult{}, err
	}
	now = clock.Minute(now)

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.schedule) == 0 {
		p.next = nil
		return ActionResult{
			Outcome: OutcomeNoSchedule,
			Message: "No schedule found",
		}, nil
	}

	e.rollDayLocked(p, now)
	p.normalizeCursor()

	slot := p.schedule[p.cursor]
	label := slot.Label()

	switch Evaluate(slot, now, e.lock) {
	case WindowEarly:
		p.next = &label
		return ActionResult{
			Outcome:      OutcomeTooEarly,
			NextDoseTime: p.snapshot().NextDoseTime,
			Message:      fmt.Sprintf("Cannot give before scheduled time (%s).", label),
		}, nil

	case WindowExpired:
		e.expireLocked(ctx, p, slot, now)
		e.refreshLocked(ctx, p, now)
		st := p.snapshot()
		return ActionResult{
			Locked:       true,
			Outcome:      OutcomeLocked,
			NextDoseTime: st.NextDoseTime,
			Message:      "This dose is locked and has been marked as missed.",
		}, nil
	}

	// Givable
	p.next = &label

	res := ActionResult{Success: true}
	if p.status != StatusGiven {
		p.status = StatusGiven
		given := now
		p.lastGivenAt = &given
		e.appendLocked(ctx, p, label, now, history.ActionGiven, history.StatusGiven)
		res.Outcome = OutcomeGiven
	} else {
		p.status = StatusDue
		e.appendLocked(ctx, p, label, now, history.ActionReverted, history.StatusDue)
		res.Outcome = OutcomeReverted
	}
	metrics.RecordDoseAction(string(p.status))

	st := p.snapshot()
	res.NewStatus = st.Status
	res.NextDoseTime = st.NextDoseTime
	res.LastGivenAt = st.LastGivenAt
	return res, nil
}

// SetScheduleSlot reemplaza de forma permanente el horario del slot actual
// y lo refleja como próxima dosis de inmediato.
func (e *Engine) SetScheduleSlot(ctx context.Context, patientID, newLabel string) (string, error) {
	p, err := e.patient(patientID)
	if err != nil {
		return "", err
	}
	t, err := ParseLabel(newLabel)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.schedule) == 0 {
		return "", ErrNoSchedule
	}
	p.normalizeCursor()

	prev := p.schedule[p.cursor].Label()
	p.schedule[p.cursor] = t
	label := t.Label()
	p.next = &label

	e.log.Info("schedule slot updated", map[string]any{
		"patient_id": p.id,
		"cursor":     p.cursor,
		"from":       prev,
		"to":         label,
	})
	return label, nil
}

func (e *Engine) refreshLocked(ctx context.Context, p *patientDose, now time.Time) {
	if len(p.schedule) == 0 {
		p.next = nil
		return
	}

	e.rollDayLocked(p, now)
	p.normalizeCursor()

	// Máximo len(schedule) vueltas: si todo expiró no se gira infinitamente.
	for range p.schedule {
		slot := p.schedule[p.cursor]
		if Evaluate(slot, now, e.lock) != WindowExpired {
			label := slot.Label()
			p.next = &label
			return
		}
		e.expireLocked(ctx, p, slot, now)
	}

	// Rollover: todas las dosis del día pasaron => primera dosis de mañana.
	p.cursor = 0
	first := p.schedule[0].Label()
	p.next = &first
	p.status = StatusDue
}

// expireLocked procesa un slot vencido: registra Missed (una sola vez por
// paciente, horario y día) salvo que la dosis se haya dado, y avanza el cursor.
func (e *Engine) expireLocked(ctx context.Context, p *patientDose, slot TimeOfDay, now time.Time) {
	label := slot.Label()
	date := now.Format(history.DateLayout)

	if p.status != StatusGiven && !e.handledLocked(p, label, date) {
		e.appendLocked(ctx, p, label, now, history.ActionMissed, history.StatusMissed)
		metrics.RecordDoseAction(string(history.StatusMissed))
		e.log.Warn("dose missed", map[string]any{
			"patient_id": p.id,
			"dose_time":  label,
			"date":       date,
		})
	}

	p.cursor = (p.cursor + 1) % len(p.schedule)
	// Given pertenece al slot que venció; el siguiente arranca en Due.
	p.status = StatusDue
}

// handledLocked: el slot ya tiene desenlace hoy si su última entry es
// Missed (ya registrado) o Given (dada y no revertida).
func (e *Engine) handledLocked(p *patientDose, label, date string) bool {
	if e.history == nil {
		return false
	}
	last, ok := e.history.Latest(p.id, label, date)
	if !ok {
		return false
	}
	return last.Status == history.StatusMissed || last.Status == history.StatusGiven
}

// rollDayLocked: al cambiar la fecha civil, el schedule vuelve al primer slot.
func (e *Engine) rollDayLocked(p *patientDose, now time.Time) {
	today := now.Format(history.DateLayout)
	if p.day != "" && p.day != today {
		p.cursor = 0
		p.status = StatusDue
	}
	p.day = today
}

func (e *Engine) appendLocked(ctx context.Context, p *patientDose, label string, now time.Time, action string, status history.Status) {
	if e.history == nil {
		return
	}
	dose := label
	e.history.Append(ctx, p.id, history.Entry{
		ID:          e.newID(),
		PatientID:   p.id,
		PatientName: p.name,
		DoseTime:    &dose,
		EventDate:   now.Format(history.DateLayout),
		Action:      action,
		Status:      status,
	})
}

func (p *patientDose) normalizeCursor() {
	if p.cursor < 0 || p.cursor >= len(p.schedule) {
		p.cursor = 0
	}
}
