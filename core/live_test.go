package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []*Note) []*Note {
	t.Helper()

	select {
	case notes, ok := <-ch:
		require.True(t, ok, "live view closed")
		return notes
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestWatchAllObservesWrites(t *testing.T) {
	notes, clock := newTestNotes(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live := notes.WatchAll(ctx)
	assert.Empty(t, receive(t, live))

	n, err := notes.Create("one", "c", "")
	require.NoError(t, err)

	snap := receive(t, live)
	require.Len(t, snap, 1)
	assert.Equal(t, n.ID, snap[0].ID)

	clock.Advance(time.Second)
	_, err = notes.Create("two", "c", "")
	require.NoError(t, err)

	snap = receive(t, live)
	require.Len(t, snap, 2)
	assert.Equal(t, "two", snap[0].Title)
}

func TestWatchSkipsUnchangedResults(t *testing.T) {
	notes, _ := newTestNotes(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live := notes.WatchSearch(ctx, "needle")
	assert.Empty(t, receive(t, live))

	_, err := notes.Create("hay", "nothing here", "")
	require.NoError(t, err)

	n, err := notes.Create("found", "a needle", "")
	require.NoError(t, err)

	snap := receive(t, live)
	require.Len(t, snap, 1)
	assert.Equal(t, n.ID, snap[0].ID)
}

func TestWatchClosesOnCancel(t *testing.T) {
	notes, _ := newTestNotes(t)

	ctx, cancel := context.WithCancel(context.Background())
	live := notes.WatchAll(ctx)
	receive(t, live)

	cancel()

	select {
	case _, ok := <-live:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("live view not closed")
	}
}
