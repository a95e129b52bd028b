package ffmpeg

import (
	"context"
	"time"
)

// FrameOptions configures single-frame extraction.
type FrameOptions struct {
	Offset  time.Duration // Where to extract from (default: 1s)
	Width   int           // Output width (default: 640)
	Height  int           // Output height (default: 360; use -2 to keep aspect)
	Quality int           // JPEG quality 1-31, lower is better (default: 4)
}

// ExtractFrame grabs a single frame as an image at a fixed resolution.
func (r *Runner) ExtractFrame(ctx context.Context, input, output string, opts *FrameOptions) error {
	if opts == nil {
		opts = &FrameOptions{}
	}
	if opts.Offset == 0 {
		opts.Offset = 1 * time.Second
	}
	if opts.Width == 0 {
		opts.Width = 640
	}
	if opts.Height == 0 {
		opts.Height = 360
	}
	if opts.Quality == 0 {
		opts.Quality = 4
	}

	return r.Run(ctx, NewCommand(input, output,
		Seek(opts.Offset),
		Scale(opts.Width, opts.Height),
		Frames(1),
		Quality(opts.Quality),
	))
}
