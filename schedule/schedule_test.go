package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func always(ok bool) Constraint {
	return ConstraintFunc{Label: "fixed", Fn: func() bool { return ok }}
}

func TestSchedulerRunsWork(t *testing.T) {
	var runs, skipped atomic.Int32

	s := New(zerolog.Nop(),
		Work{Name: "ok", Interval: 5 * time.Millisecond, Constraints: []Constraint{always(true)}, Run: func(context.Context) error {
			runs.Add(1)
			return errors.New("failures do not stop the schedule")
		}},
		Work{Name: "blocked", Interval: 5 * time.Millisecond, Constraints: []Constraint{always(false)}, Run: func(context.Context) error {
			skipped.Add(1)
			return nil
		}},
		Work{Name: "disabled", Run: func(context.Context) error {
			t.Error("work without interval must not run")
			return nil
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	assert.EqualValues(t, 0, skipped.Load())
}

func writeBattery(t *testing.T, root, name, capacity, status string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "capacity"), []byte(capacity+"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte(status+"\n"), 0644))
}

func TestBatteryNotLow(t *testing.T) {
	root := t.TempDir()
	c := batteryConstraint{root: root, threshold: 20}

	assert.True(t, c.Satisfied(), "no battery")

	writeBattery(t, root, "BAT0", "15", "Charging")
	assert.True(t, c.Satisfied(), "low but charging")

	writeBattery(t, root, "BAT0", "15", "Discharging")
	assert.False(t, c.Satisfied())

	writeBattery(t, root, "BAT0", "80", "Discharging")
	assert.True(t, c.Satisfied())
}
