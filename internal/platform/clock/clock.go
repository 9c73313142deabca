// Package clock entrega la hora civil del hospital, truncada al minuto.
package clock

import (
	"fmt"
	"strings"
	"sync"
	"time"

	_ "time/tzdata" // la imagen del contenedor puede no traer zoneinfo
)

const DefaultTimezone = "Asia/Dhaka"

type Clock interface {
	// Now devuelve la hora actual en la zona civil, sin segundos.
	Now() time.Time
}

type Civil struct {
	loc *time.Location
	now func() time.Time
}

func New(loc *time.Location) *Civil {
	if loc == nil {
		loc = time.UTC
	}
	return &Civil{loc: loc, now: time.Now}
}

// Load resuelve la zona por nombre IANA (vacío => DefaultTimezone).
func Load(name string) (*Civil, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("clock: load location %q: %w", name, err)
	}
	return New(loc), nil
}

func (c *Civil) Now() time.Time {
	return Minute(c.now().In(c.loc))
}

func (c *Civil) Location() *time.Location { return c.loc }

// Minute descarta segundos y nanos conservando la zona.
func Minute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// Manual es un reloj controlable para tests.
type Manual struct {
	mu  sync.Mutex
	cur time.Time
}

func NewManual(t time.Time) *Manual {
	return &Manual{cur: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Minute(m.cur)
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.cur = t
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.cur = m.cur.Add(d)
	m.mu.Unlock()
}
