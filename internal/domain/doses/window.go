package doses

import "time"

type Window int

const (
	// Early: todavía no llegó la hora programada.
	WindowEarly Window = iota
	// Givable: entre la hora programada y hora+lock (ambos inclusive).
	WindowGivable
	// Expired: pasó la ventana de lock.
	WindowExpired
)

func (w Window) String() string {
	switch w {
	case WindowEarly:
		return "early"
	case WindowGivable:
		return "givable"
	case WindowExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Evaluate clasifica now respecto del slot, ubicado en la fecha civil de now.
// Es pura: no toca estado ni historial.
func Evaluate(slot TimeOfDay, now time.Time, lock time.Duration) Window {
	scheduled := slot.On(now)
	switch {
	case now.Before(scheduled):
		return WindowEarly
	case !now.After(scheduled.Add(lock)):
		return WindowGivable
	default:
		return WindowExpired
	}
}
