package resource

import (
	"context"
	"io"
)

// RateLimitedWriterAt charges every WriteAt against the Controller's IO budget.
type RateLimitedWriterAt struct {
	ctx context.Context
	w   io.WriterAt
	c   *Controller
}

// NewRateLimitedWriterAt wraps w. A nil Controller disables limiting.
func NewRateLimitedWriterAt(ctx context.Context, w io.WriterAt, c *Controller) *RateLimitedWriterAt {
	return &RateLimitedWriterAt{ctx: ctx, w: w, c: c}
}

// WriteAt implements io.WriterAt.
func (r *RateLimitedWriterAt) WriteAt(p []byte, off int64) (int, error) {
	if err := r.c.AcquireIO(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.w.WriteAt(p, off)
}
