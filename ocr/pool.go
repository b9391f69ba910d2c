package ocr

import (
	"context"
	"image"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"docscrub/document"
	"docscrub/internal/constants"
)

// PageTask is one raster queued for recognition.
type PageTask struct {
	Page  int
	Image image.Image
}

// PageResult carries the recognition outcome for one page. Blocks are in the
// original raster's pixel space and orientation; Rotation is the detected
// scan rotation the caller still has to correct for.
type PageResult struct {
	Page     int
	Text     string
	Blocks   []document.TextBlock
	Rotation int
	Err      error
}

// Pool runs page recognition on a bounded number of workers with a per-page
// timeout. A timeout or provider failure lands in the page's Result, not in
// the pool's error return; only context cancellation aborts the whole batch.
type Pool struct {
	provider Provider
	workers  int64
	timeout  time.Duration
}

func NewPool(provider Provider, workers int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = constants.DefaultOCRWorkers
	}
	if timeout <= 0 {
		timeout = constants.DefaultOCRPageTimeout
	}
	return &Pool{provider: provider, workers: int64(workers), timeout: timeout}
}

// Run recognizes all tasks and returns results in task order.
func (p *Pool) Run(ctx context.Context, tasks []PageTask) ([]PageResult, error) {
	results := make([]PageResult, len(tasks))
	sem := semaphore.NewWeighted(p.workers)
	g, ctx := errgroup.WithContext(ctx)

	for i, task := range tasks {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			results[i] = p.recognize(ctx, task)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pool) recognize(ctx context.Context, task PageTask) PageResult {
	pageCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res := PageResult{Page: task.Page}

	rotation := DetectOrientation(task.Image)
	upright := RotateUpright(task.Image, rotation)
	prepared, scale := Preprocess(upright)

	content, err := EncodePNG(prepared)
	if err != nil {
		res.Err = &document.OCRFailure{Page: task.Page, Err: err}
		return res
	}

	out, err := p.provider.ProcessImage(pageCtx, content, task.Page)
	if err != nil {
		if pageCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			log.WithField("page", task.Page).Warn("OCR timed out")
			res.Err = &document.OCRTimeoutError{Page: task.Page}
		} else {
			res.Err = &document.OCRFailure{Page: task.Page, Err: err}
		}
		return res
	}

	res.Text = out.Text
	res.Rotation = rotation
	res.Blocks = rasterSpace(out.Blocks, rotation, scale, task.Image.Bounds())
	return res
}

// rasterSpace maps boxes recognized on the preprocessed upright image back
// into the original raster's pixel space: undo the preprocessing scale, then
// undo the upright rotation so the caller sees boxes as the scanner produced
// them alongside the detected rotation.
func rasterSpace(blocks []document.TextBlock, rotation int, scale float64, raster image.Rectangle) []document.TextBlock {
	w, h := float64(raster.Dx()), float64(raster.Dy())
	out := make([]document.TextBlock, 0, len(blocks))
	for _, b := range blocks {
		if scale != 1.0 && scale != 0 {
			b.BBox = b.BBox.Scale(1 / scale)
		}
		b.BBox = unrotate(b.BBox, rotation, w, h)
		out = append(out, b)
	}
	return out
}

// unrotate maps a box from the upright orientation back into a raster
// rotated by the given angle. w and h are the raster's own dimensions.
func unrotate(b document.BBox, rotation int, w, h float64) document.BBox {
	switch rotation {
	case 90:
		// Upright space is h wide, w tall.
		return document.BBox{X1: w - b.Y2, Y1: b.X1, X2: w - b.Y1, Y2: b.X2}
	case 180:
		return document.BBox{X1: w - b.X2, Y1: h - b.Y2, X2: w - b.X1, Y2: h - b.Y1}
	case 270:
		return document.BBox{X1: b.Y1, Y1: h - b.X2, X2: b.Y2, Y2: h - b.X1}
	default:
		return b
	}
}
