package voice

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/ikasoba/notebox/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitWritten(t *testing.T, r *Recorder, n int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.written == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRecordPauseResumeStop(t *testing.T) {
	pr, pw := io.Pipe()
	rec := NewRecorder(t.TempDir(), pr, DefaultFormat, zerolog.Nop())

	require.NoError(t, rec.Start(context.Background()))
	assert.Equal(t, StateRecording, rec.State())

	_, err := pw.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	waitWritten(t, rec, 4)

	require.NoError(t, rec.Pause())
	assert.Equal(t, StatePaused, rec.State())
	_, err = pw.Write([]byte{9, 9})
	require.NoError(t, err)
	// an empty write completes only once the paused chunk has been handled
	_, err = pw.Write(nil)
	require.NoError(t, err)

	require.NoError(t, rec.Resume())
	_, err = pw.Write([]byte{5, 6})
	require.NoError(t, err)
	waitWritten(t, rec, 6)

	path, err := rec.Stop()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, rec.State())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, wavHeaderSize+6)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.EqualValues(t, 36+6, binary.LittleEndian.Uint32(data[4:8]))
	assert.EqualValues(t, 16000, binary.LittleEndian.Uint32(data[24:28]))
	assert.EqualValues(t, 6, binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, data[44:])
}

func TestInvalidTransitions(t *testing.T) {
	rec := NewRecorder(t.TempDir(), bytes.NewReader(nil), DefaultFormat, zerolog.Nop())

	assert.Error(t, rec.Pause())
	assert.Error(t, rec.Resume())
	_, err := rec.Stop()
	assert.Error(t, err)

	require.NoError(t, rec.Start(context.Background()))
	assert.Error(t, rec.Start(context.Background()))
	assert.Error(t, rec.Resume())

	path, err := rec.Stop()
	require.NoError(t, err)
	assert.FileExists(t, path)
}

type brokenSource struct{}

func (brokenSource) Read([]byte) (int, error) {
	return 0, errors.New("microphone unavailable")
}

func TestDeviceFailure(t *testing.T) {
	// Stop right after Start must still see the failed read
	for i := 0; i < 50; i++ {
		dir := t.TempDir()
		rec := NewRecorder(dir, brokenSource{}, DefaultFormat, zerolog.Nop())

		require.NoError(t, rec.Start(context.Background()))

		path, err := rec.Stop()
		require.Error(t, err)
		assert.True(t, core.IsKind(err, core.KindIO))
		assert.Empty(t, path)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}

type closingSource struct {
	closed chan struct{}
}

func (s *closingSource) Read([]byte) (int, error) {
	<-s.closed
	return 0, errors.New("device detached")
}

func (s *closingSource) Close() error {
	close(s.closed)
	return nil
}

func TestStopClosingSourceIsNotAFailure(t *testing.T) {
	src := &closingSource{closed: make(chan struct{})}
	rec := NewRecorder(t.TempDir(), src, DefaultFormat, zerolog.Nop())

	require.NoError(t, rec.Start(context.Background()))

	path, err := rec.Stop()
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestRecordingStopsAtSizeLimit(t *testing.T) {
	prev := maxDataSize
	maxDataSize = 3
	t.Cleanup(func() { maxDataSize = prev })

	rec := NewRecorder(t.TempDir(), bytes.NewReader([]byte{1, 2, 3, 4, 5}), DefaultFormat, zerolog.Nop())
	require.NoError(t, rec.Start(context.Background()))

	select {
	case <-rec.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not stop at the size limit")
	}

	path, err := rec.Stop()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, wavHeaderSize+3)
	assert.EqualValues(t, 3, binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, []byte{1, 2, 3}, data[44:])
}

func TestDoneOnSourceEOF(t *testing.T) {
	rec := NewRecorder(t.TempDir(), bytes.NewReader([]byte{1, 2}), DefaultFormat, zerolog.Nop())
	assert.Nil(t, rec.Done())

	require.NoError(t, rec.Start(context.Background()))

	select {
	case <-rec.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not finish on EOF")
	}

	path, err := rec.Stop()
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, wavHeaderSize+2, info.Size())
}
