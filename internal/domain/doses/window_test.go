package doses

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	slot := TimeOfDay{Hour: 10, Minute: 0}
	lock := 2 * time.Minute

	tests := []struct {
		name string
		now  time.Time
		want Window
	}{
		{"one minute before", at(1, 9, 59), WindowEarly},
		{"on time", at(1, 10, 0), WindowGivable},
		{"inside", at(1, 10, 1), WindowGivable},
		{"last givable minute", at(1, 10, 2), WindowGivable},
		{"past lock", at(1, 10, 3), WindowExpired},
		{"late evening", at(1, 23, 0), WindowExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(slot, tt.now, lock))
		})
	}
}

func TestWindow_String(t *testing.T) {
	assert.Equal(t, "early", WindowEarly.String())
	assert.Equal(t, "givable", WindowGivable.String())
	assert.Equal(t, "expired", WindowExpired.String())
	assert.Equal(t, "unknown", Window(42).String())
}
