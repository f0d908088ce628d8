// Package voice records audio memos to WAV files.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/ikasoba/notebox/core"
	"github.com/rs/zerolog"
)

// maxDataSize keeps the RIFF chunk size within uint32.
var maxDataSize int64 = math.MaxUint32 - 36

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
)

// Recorder copies PCM from a source into a WAV file. Samples read while
// paused are discarded.
type Recorder struct {
	dir    string
	src    io.Reader
	format Format
	log    zerolog.Logger

	mu       sync.Mutex
	state    State
	file     *os.File
	written  int64
	stopping bool
	readErr  error
	done     chan struct{}
	cancel   context.CancelFunc

	// set just before Stop closes src
	sourceClosed bool
}

// NewRecorder records from src into dir. If src is an io.Closer it is
// closed on Stop to unblock a pending read.
func NewRecorder(dir string, src io.Reader, format Format, log zerolog.Logger) *Recorder {
	return &Recorder{
		dir:    dir,
		src:    src,
		format: format,
		log:    log,
		state:  StateIdle,
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return fmt.Errorf("start: recorder is %s", r.state)
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return core.Errorf(core.KindIO, err, "create recordings directory")
	}

	f, err := os.Create(filepath.Join(r.dir, uuid.NewString()+".wav"))
	if err != nil {
		return core.Errorf(core.KindIO, err, "create recording")
	}

	if err := writeWAVHeader(f, r.format, 0); err != nil {
		f.Close()
		os.Remove(f.Name())
		return core.Errorf(core.KindIO, err, "write recording header")
	}

	if _, err := f.Seek(wavHeaderSize, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return core.Errorf(core.KindIO, err, "write recording header")
	}

	ctx, cancel := context.WithCancel(ctx)

	r.file = f
	r.written = 0
	r.stopping = false
	r.sourceClosed = false
	r.readErr = nil
	r.done = make(chan struct{})
	r.cancel = cancel
	r.state = StateRecording

	go r.loop(ctx, f, r.done)

	r.log.Debug().Str("path", f.Name()).Msg("recording started")

	return nil
}

// Done is closed when the source runs dry or the recording is stopped.
// It is nil before Start.
func (r *Recorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Recorder) Pause() error {
	return r.transition(StateRecording, StatePaused)
}

func (r *Recorder) Resume() error {
	return r.transition(StatePaused, StateRecording)
}

// Stop ends the recording and returns the path of the finished file.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	if r.state == StateIdle {
		r.mu.Unlock()
		return "", errors.New("stop: recorder is idle")
	}
	r.stopping = true
	done, f := r.done, r.file
	r.mu.Unlock()

	r.cancel()
	if c, ok := r.src.(io.Closer); ok {
		r.mu.Lock()
		r.sourceClosed = true
		r.mu.Unlock()
		c.Close()
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = StateIdle
	r.file = nil

	if r.readErr != nil {
		f.Close()
		os.Remove(f.Name())
		return "", core.Errorf(core.KindIO, r.readErr, "record audio")
	}

	if err := writeWAVHeader(f, r.format, uint32(r.written)); err != nil {
		f.Close()
		return "", core.Errorf(core.KindIO, err, "finish recording")
	}

	if err := f.Close(); err != nil {
		return "", core.Errorf(core.KindIO, err, "finish recording")
	}

	r.log.Debug().Str("path", f.Name()).Int64("bytes", r.written).Msg("recording stopped")

	return f.Name(), nil
}

func (r *Recorder) transition(from, to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != from {
		return fmt.Errorf("cannot go from %s to %s", r.state, to)
	}
	r.state = to

	return nil
}

func (r *Recorder) loop(ctx context.Context, f *os.File, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 4096)

	for {
		n, err := r.src.Read(buf)

		if n > 0 {
			full, werr := r.write(f, buf[:n])
			if werr != nil || full {
				return
			}
		}

		if err != nil {
			r.mu.Lock()
			if !r.closedByStop(err) {
				r.readErr = err
			}
			r.mu.Unlock()
			return
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// write appends p unless paused or stopping. full reports that the WAV data
// chunk cannot grow any further.
func (r *Recorder) write(f *os.File, p []byte) (full bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording || r.stopping {
		return false, nil
	}

	if room := maxDataSize - r.written; int64(len(p)) >= room {
		p, full = p[:room], true
	}

	if _, err := f.Write(p); err != nil {
		r.readErr = err
		return false, err
	}
	r.written += int64(len(p))

	if full {
		r.log.Warn().Int64("bytes", r.written).Msg("recording reached the WAV size limit")
	}

	return full, nil
}

// closedByStop reports whether err is the source ending or Stop closing it.
// Must be called with r.mu held.
func (r *Recorder) closedByStop(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	return r.sourceClosed
}
