package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCivil_NowIsMinuteTruncatedInZone(t *testing.T) {
	c, err := Load("Asia/Dhaka")
	require.NoError(t, err)

	c.now = func() time.Time {
		return time.Date(2026, 3, 1, 14, 49, 37, 123, time.UTC)
	}

	got := c.Now()
	assert.Equal(t, "Asia/Dhaka", got.Location().String())
	assert.Equal(t, 20, got.Hour())
	assert.Equal(t, 49, got.Minute())
	assert.Zero(t, got.Second())
	assert.Zero(t, got.Nanosecond())
}

func TestLoad_DefaultAndInvalid(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, c.Location().String())

	_, err = Load("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestManual_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 45, 0, time.UTC)
	m := NewManual(start)

	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), m.Now())

	m.Advance(30 * time.Second)
	assert.Equal(t, 1, m.Now().Minute())

	m.Set(start.Add(time.Hour))
	assert.Equal(t, 11, m.Now().Hour())
}
