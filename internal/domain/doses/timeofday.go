package doses

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LabelLayout es el formato de horario que se consume y produce: "08:49 PM".
const LabelLayout = "03:04 PM"

var ErrInvalidTimeFormat = errors.New("invalid time format")

// TimeOfDay es un horario diario sin fecha.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseLabel acepta solo hh:mm AM|PM con cero a la izquierda.
func ParseLabel(s string) (TimeOfDay, error) {
	t, err := time.Parse(LabelLayout, strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) Label() string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format(LabelLayout)
}

func (t TimeOfDay) String() string { return t.Label() }

// On ubica el horario en la fecha civil de day (misma zona).
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

func parseSchedule(labels []string) ([]TimeOfDay, error) {
	out := make([]TimeOfDay, 0, len(labels))
	for _, l := range labels {
		t, err := ParseLabel(l)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
