package ocr

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/document"
	"docscrub/extract"
)

type fakeProvider struct {
	delay   time.Duration
	fail    map[int]bool
	calls   atomic.Int32
	maxBusy atomic.Int32
	busy    atomic.Int32
}

func (f *fakeProvider) ProcessImage(ctx context.Context, imageContent []byte, pageNumber int) (*Result, error) {
	f.calls.Add(1)
	n := f.busy.Add(1)
	defer f.busy.Add(-1)
	for {
		old := f.maxBusy.Load()
		if n <= old || f.maxBusy.CompareAndSwap(old, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.fail[pageNumber] {
		return nil, fmt.Errorf("engine failure")
	}
	return &Result{
		Text: fmt.Sprintf("page %d", pageNumber),
		Blocks: []document.TextBlock{
			{Text: fmt.Sprintf("word%d", pageNumber), BBox: document.BBox{X1: 1, Y1: 1, X2: 10, Y2: 5}},
		},
	}, nil
}

func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func makeTasks(n int) []PageTask {
	tasks := make([]PageTask, n)
	for i := range tasks {
		tasks[i] = PageTask{Page: i + 1, Image: testImage(40, 20)}
	}
	return tasks
}

func TestPoolRunPreservesOrder(t *testing.T) {
	provider := &fakeProvider{}
	pool := NewPool(provider, 4, time.Minute)

	results, err := pool.Run(context.Background(), makeTasks(8))
	require.NoError(t, err)
	require.Len(t, results, 8)

	for i, res := range results {
		assert.Equal(t, i+1, res.Page)
		require.NoError(t, res.Err)
		assert.Equal(t, fmt.Sprintf("page %d", i+1), res.Text)
	}
	assert.Equal(t, int32(8), provider.calls.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	provider := &fakeProvider{delay: 20 * time.Millisecond}
	pool := NewPool(provider, 2, time.Minute)

	_, err := pool.Run(context.Background(), makeTasks(6))
	require.NoError(t, err)
	assert.LessOrEqual(t, provider.maxBusy.Load(), int32(2))
}

func TestPoolPageTimeoutDegradesToMarker(t *testing.T) {
	provider := &fakeProvider{delay: 200 * time.Millisecond}
	pool := NewPool(provider, 2, 20*time.Millisecond)

	results, err := pool.Run(context.Background(), makeTasks(2))
	require.NoError(t, err)

	for _, res := range results {
		var timeout *document.OCRTimeoutError
		require.ErrorAs(t, res.Err, &timeout)
		assert.Equal(t, res.Page, timeout.Page)
	}
}

func TestPoolProviderFailureDegradesToMarker(t *testing.T) {
	provider := &fakeProvider{fail: map[int]bool{2: true}}
	pool := NewPool(provider, 2, time.Minute)

	results, err := pool.Run(context.Background(), makeTasks(3))
	require.NoError(t, err)

	require.NoError(t, results[0].Err)
	require.NoError(t, results[2].Err)

	var failure *document.OCRFailure
	require.ErrorAs(t, results[1].Err, &failure)
	assert.Equal(t, 2, failure.Page)
}

func TestPoolCancellationAborts(t *testing.T) {
	provider := &fakeProvider{delay: time.Second}
	pool := NewPool(provider, 1, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := pool.Run(ctx, makeTasks(4))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnrotateInvertsCorrection(t *testing.T) {
	// Raster dimensions and a box inside them.
	const w, h = 600.0, 800.0
	raw := document.BBox{X1: 10, Y1: 10, X2: 20, Y2: 50}

	for _, rotation := range []int{0, 90, 180, 270} {
		t.Run(fmt.Sprintf("rotation %d", rotation), func(t *testing.T) {
			upright := extract.CorrectRotation(raw, rotation, w, h)
			back := unrotate(upright, rotation, w, h)
			assert.Equal(t, raw, back)
		})
	}
}
