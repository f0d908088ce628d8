// Package capture turns camera frames and image files into text through an
// OCR engine.
package capture

import (
	"context"
	"image"
	"sync"

	"github.com/rs/zerolog"
)

// Recognizer is the OCR engine.
type Recognizer interface {
	RecognizeText(ctx context.Context, img image.Image) (string, error)
}

// Frame is a camera buffer. Close hands it back to the camera pipeline and
// must be called exactly once.
type Frame interface {
	Image() image.Image
	Close() error
}

type Result struct {
	Text string
	Err  error
}

const defaultMaxDim = 2048

// Analyzer recognizes text in at most one frame at a time. A frame offered
// while another waits replaces it; the replaced frame is released.
type Analyzer struct {
	rec     Recognizer
	maxDim  int
	log     zerolog.Logger
	results chan Result
	wake    chan struct{}

	mu      sync.Mutex
	pending Frame
	stopped bool
}

type AnalyzerOption func(*Analyzer)

// WithMaxDimension sets the size frames are scaled down to before
// recognition.
func WithMaxDimension(px int) AnalyzerOption {
	return func(a *Analyzer) {
		a.maxDim = px
	}
}

func WithAnalyzerLogger(l zerolog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.log = l
	}
}

func NewAnalyzer(rec Recognizer, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		rec:     rec,
		maxDim:  defaultMaxDim,
		log:     zerolog.Nop(),
		results: make(chan Result, 1),
		wake:    make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *Analyzer) Results() <-chan Result {
	return a.results
}

// Offer queues f for recognition. It never blocks.
func (a *Analyzer) Offer(f Frame) {
	a.mu.Lock()

	if a.stopped {
		a.mu.Unlock()
		a.release(f)
		return
	}

	stale := a.pending
	a.pending = f
	a.mu.Unlock()

	if stale != nil {
		a.release(stale)
	}

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Run processes frames until ctx is done, then releases any pending frame
// and closes Results.
func (a *Analyzer) Run(ctx context.Context) {
	defer close(a.results)
	defer a.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.wake:
		}

		a.mu.Lock()
		f := a.pending
		a.pending = nil
		a.mu.Unlock()

		if f == nil {
			continue
		}

		res := a.process(ctx, f)

		select {
		case a.results <- res:
		case <-ctx.Done():
			return
		}
	}
}

func (a *Analyzer) process(ctx context.Context, f Frame) Result {
	defer a.release(f)

	img := Downscale(f.Image(), a.maxDim)

	text, err := a.rec.RecognizeText(ctx, img)
	if err != nil {
		a.log.Debug().Err(err).Msg("text recognition failed")
		return Result{Err: err}
	}

	return Result{Text: text}
}

func (a *Analyzer) stop() {
	a.mu.Lock()
	a.stopped = true
	f := a.pending
	a.pending = nil
	a.mu.Unlock()

	if f != nil {
		a.release(f)
	}
}

func (a *Analyzer) release(f Frame) {
	if err := f.Close(); err != nil {
		a.log.Warn().Err(err).Msg("release frame")
	}
}

// ImageFrame wraps a still image as a frame with nothing to release.
type ImageFrame struct {
	Img image.Image
}

func (f ImageFrame) Image() image.Image {
	return f.Img
}

func (f ImageFrame) Close() error {
	return nil
}
