package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFrame struct {
	id       int
	img      image.Image
	released *atomic.Int32
	closed   atomic.Bool
}

func (f *countingFrame) Image() image.Image { return f.img }

func (f *countingFrame) Close() error {
	if f.closed.Swap(true) {
		panic("frame released twice")
	}
	f.released.Add(1)
	return nil
}

// gatedRecognizer blocks each call until the test lets it through.
type gatedRecognizer struct {
	started chan image.Image
	proceed chan struct{}
	fail    bool
}

func (g *gatedRecognizer) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	select {
	case g.started <- img:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case <-g.proceed:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if g.fail {
		return "", errors.New("ocr failed")
	}
	return "w" + string(rune('0'+img.Bounds().Dx())), nil
}

func frameOf(id int, released *atomic.Int32) *countingFrame {
	return &countingFrame{id: id, img: image.NewGray(image.Rect(0, 0, id, 1)), released: released}
}

func TestAnalyzerKeepsLatestFrame(t *testing.T) {
	rec := &gatedRecognizer{started: make(chan image.Image), proceed: make(chan struct{})}
	a := NewAnalyzer(rec)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Run(ctx)
	}()

	var released atomic.Int32

	a.Offer(frameOf(1, &released))
	first := <-rec.started
	assert.Equal(t, 1, first.Bounds().Dx())

	// frame 1 is in flight: 2 and 3 queue up, 3 replaces 2
	a.Offer(frameOf(2, &released))
	a.Offer(frameOf(3, &released))
	assert.EqualValues(t, 1, released.Load())

	rec.proceed <- struct{}{}
	res := <-a.Results()
	require.NoError(t, res.Err)
	assert.Equal(t, "w1", res.Text)

	next := <-rec.started
	assert.Equal(t, 3, next.Bounds().Dx())
	rec.proceed <- struct{}{}
	res = <-a.Results()
	assert.Equal(t, "w3", res.Text)

	cancel()
	wg.Wait()

	assert.EqualValues(t, 3, released.Load())

	_, open := <-a.Results()
	assert.False(t, open)
}

func TestAnalyzerReleasesOnFailure(t *testing.T) {
	rec := &gatedRecognizer{started: make(chan image.Image, 1), proceed: make(chan struct{}, 1), fail: true}
	a := NewAnalyzer(rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	var released atomic.Int32
	rec.proceed <- struct{}{}
	a.Offer(frameOf(4, &released))

	res := <-a.Results()
	assert.EqualError(t, res.Err, "ocr failed")
	assert.EqualValues(t, 1, released.Load())
}

func TestAnalyzerReleasesAfterStop(t *testing.T) {
	a := NewAnalyzer(&gatedRecognizer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	var released atomic.Int32
	a.Offer(frameOf(1, &released))
	assert.EqualValues(t, 1, released.Load())
}

func TestAnalyzerReleasesPendingOnStop(t *testing.T) {
	rec := &gatedRecognizer{started: make(chan image.Image), proceed: make(chan struct{})}
	a := NewAnalyzer(rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	var released atomic.Int32
	a.Offer(frameOf(1, &released))
	<-rec.started
	a.Offer(frameOf(2, &released))

	cancel()
	<-done

	assert.EqualValues(t, 2, released.Load())
}

type fakeUseCase struct {
	name    string
	log     *[]string
	failing bool
}

func (u *fakeUseCase) Name() string { return u.name }

func (u *fakeUseCase) Bind() error {
	if u.failing {
		return errors.New("busy")
	}
	*u.log = append(*u.log, "bind "+u.name)
	return nil
}

func (u *fakeUseCase) Unbind() error {
	*u.log = append(*u.log, "unbind "+u.name)
	return nil
}

func TestSessionUnbindsBeforeRebinding(t *testing.T) {
	var log []string
	s := &Session{}

	require.NoError(t, s.Bind(&fakeUseCase{name: "preview", log: &log}, &fakeUseCase{name: "analysis", log: &log}))
	assert.Equal(t, []string{"preview", "analysis"}, s.Bound())

	require.NoError(t, s.Bind(&fakeUseCase{name: "capture", log: &log}))
	assert.Equal(t, []string{
		"bind preview", "bind analysis",
		"unbind analysis", "unbind preview",
		"bind capture",
	}, log)

	require.NoError(t, s.Close())
	assert.Empty(t, s.Bound())
	assert.Equal(t, "unbind capture", log[len(log)-1])
}

func TestSessionBindFailureRollsBack(t *testing.T) {
	var log []string
	s := &Session{}

	err := s.Bind(&fakeUseCase{name: "preview", log: &log}, &fakeUseCase{name: "analysis", log: &log, failing: true})
	assert.ErrorContains(t, err, "bind analysis")
	assert.Empty(t, s.Bound())
	assert.Equal(t, []string{"bind preview", "unbind preview"}, log)
}

func TestDownscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 100))

	small := Downscale(img, 200)
	assert.Equal(t, image.Rect(0, 0, 200, 50), small.Bounds())

	tall := Downscale(image.NewRGBA(image.Rect(0, 0, 10, 1000)), 100)
	assert.Equal(t, image.Rect(0, 0, 1, 100), tall.Bounds())

	assert.Same(t, img, Downscale(img, 0))
	assert.Same(t, img, Downscale(img, 500))
}

func TestDecode(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 1, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())

	_, err = Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestImageFrame(t *testing.T) {
	rec := &gatedRecognizer{started: make(chan image.Image, 1), proceed: make(chan struct{}, 1)}
	rec.proceed <- struct{}{}

	a := NewAnalyzer(rec, WithMaxDimension(0))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go a.Run(ctx)

	a.Offer(ImageFrame{Img: image.NewGray(image.Rect(0, 0, 2, 2))})
	res := <-a.Results()
	require.NoError(t, res.Err)
	assert.Equal(t, "w2", res.Text)
}
