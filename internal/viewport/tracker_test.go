package viewport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_DwellAccumulates(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker()

	tr.Observe(t0, map[int]float64{0: 1})
	tr.Observe(t0.Add(50*time.Millisecond), map[int]float64{0: 0.6, 1: 0.4})

	visible, dwell := tr.Snapshot(t0.Add(120 * time.Millisecond))
	assert.Equal(t, map[int]float64{0: 0.6, 1: 0.4}, visible)
	assert.Equal(t, 120*time.Millisecond, dwell[0])
	assert.Equal(t, 70*time.Millisecond, dwell[1])
}

func TestTracker_LeavingRestartsDwell(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker()

	tr.Observe(t0, map[int]float64{2: 1})
	tr.Observe(t0.Add(time.Second), map[int]float64{3: 1})
	assert.False(t, tr.Visible(2))
	tr.Observe(t0.Add(2*time.Second), map[int]float64{2: 1, 3: 0})

	_, dwell := tr.Snapshot(t0.Add(2*time.Second + 10*time.Millisecond))
	assert.Equal(t, 10*time.Millisecond, dwell[2])
	assert.False(t, tr.Visible(3), "zero fraction is not visible")
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Observe(time.Now(), map[int]float64{1: 1})
	tr.Reset()

	visible, dwell := tr.Snapshot(time.Now())
	assert.Empty(t, visible)
	assert.Empty(t, dwell)
}
