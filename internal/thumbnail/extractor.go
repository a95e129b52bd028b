package thumbnail

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"northpier.systems/reelsync/pkg/ffmpeg"
)

// Extractor shells out to ffmpeg through the configured runner. The file is
// probed first so corrupt downloads fail before the frame grab and very
// short clips still land inside their own duration.
type Extractor struct {
	Runner *ffmpeg.Runner

	// Output geometry and quality; zero values use the runner's defaults.
	Width   int
	Height  int
	Quality int

	Log *slog.Logger
}

func NewExtractor(runner *ffmpeg.Runner) *Extractor {
	return &Extractor{Runner: runner}
}

func (e *Extractor) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// ExtractFrame implements FrameExtractor.
func (e *Extractor) ExtractFrame(ctx context.Context, videoPath string, offset time.Duration) ([]byte, error) {
	probe, err := e.Runner.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}
	if probe.VideoStreams == 0 {
		return nil, fmt.Errorf("no video stream in %s", filepath.Base(videoPath))
	}

	// Keep the grab inside very short clips.
	if probe.Duration > 0 && offset.Seconds() >= probe.Duration {
		offset = time.Duration(probe.Duration / 2 * float64(time.Second))
	}

	e.logger().Debug("video probed",
		"path", videoPath,
		"codec", probe.VideoCodec,
		"duration", probe.Duration,
		"offset", offset)

	out := filepath.Join(filepath.Dir(videoPath), "thumbnail.jpg")
	err = e.Runner.ExtractFrame(ctx, videoPath, out, &ffmpeg.FrameOptions{
		Offset:  offset,
		Width:   e.Width,
		Height:  e.Height,
		Quality: e.Quality,
	})
	if err != nil {
		return nil, err
	}

	image, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read extracted frame: %w", err)
	}
	return image, nil
}
