// Package thumbnail derives preview images from finished project videos.
package thumbnail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"northpier.systems/reelsync/internal/assetkey"
	"northpier.systems/reelsync/internal/db"
	"northpier.systems/reelsync/internal/pipeline"
)

// Skip reasons reported for projects that need no extraction work.
const (
	SkipThumbnailExists = "thumbnail_exists"
	SkipNoVideoURL      = "no_video_url"
)

// Store persists the derived thumbnail URL.
type Store interface {
	UpdateProjectThumbnail(ctx context.Context, id, url string, cfg db.ProjectConfig) error
}

// ObjectStore uploads thumbnails and resolves their access URLs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	ResolveURL(ctx context.Context, key string) (string, error)
}

// FrameExtractor grabs one frame from a local video file.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string, offset time.Duration) ([]byte, error)
}

// Options tune a single processing pass.
type Options struct {
	// DryRun downloads and extracts but skips the upload and the
	// database write.
	DryRun bool
	// Force regenerates thumbnails for projects that already carry one.
	Force bool
}

// Outcome reports what one pass did for one project.
type Outcome struct {
	ProjectID    string
	Skipped      bool
	SkipReason   string
	Simulated    bool
	ThumbnailKey string
	ThumbnailURL string
}

// Worker runs the download, extract, upload, persist sequence for one
// project at a time.
type Worker struct {
	Store     Store
	Objects   ObjectStore
	Extractor FrameExtractor

	// HTTPClient downloads source videos. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// DownloadTimeout bounds the source video fetch.
	DownloadTimeout time.Duration

	// ExtractTimeout bounds the frame extraction tool.
	ExtractTimeout time.Duration

	// FrameOffset is where in the video the frame is grabbed. Kept
	// strictly positive so codecs that misrender the very first frame
	// never supply the thumbnail.
	FrameOffset time.Duration

	Log *slog.Logger
}

// NewWorker wires the worker's collaborators with default limits.
func NewWorker(store Store, objects ObjectStore, extractor FrameExtractor) *Worker {
	return &Worker{
		Store:           store,
		Objects:         objects,
		Extractor:       extractor,
		DownloadTimeout: 5 * time.Minute,
		ExtractTimeout:  2 * time.Minute,
		FrameOffset:     time.Second,
	}
}

func (w *Worker) httpClient() *http.Client {
	if w.HTTPClient != nil {
		return w.HTTPClient
	}
	return http.DefaultClient
}

func (w *Worker) downloadTimeout() time.Duration {
	if w.DownloadTimeout > 0 {
		return w.DownloadTimeout
	}
	return 5 * time.Minute
}

func (w *Worker) extractTimeout() time.Duration {
	if w.ExtractTimeout > 0 {
		return w.ExtractTimeout
	}
	return 2 * time.Minute
}

func (w *Worker) logger() *slog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return slog.Default()
}

// Process derives and persists one thumbnail for project. Skips are not
// errors; a returned error means the project failed and the batch should
// record it and move on. The temp working directory is removed on every
// path.
func (w *Worker) Process(ctx context.Context, project *db.Project, opts Options) (*Outcome, error) {
	outcome := &Outcome{ProjectID: project.ID}

	if project.Config.ThumbnailURL != "" && !opts.Force && !opts.DryRun {
		outcome.Skipped = true
		outcome.SkipReason = SkipThumbnailExists
		return outcome, nil
	}
	if strings.TrimSpace(project.FinalVideoURL) == "" {
		outcome.Skipped = true
		outcome.SkipReason = SkipNoVideoURL
		return outcome, nil
	}

	dir, err := os.MkdirTemp("", "reelsync-thumb-*")
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrExtraction, "create temp dir", err)
	}
	defer os.RemoveAll(dir)

	videoPath, size, err := w.download(ctx, project.FinalVideoURL, dir)
	if err != nil {
		return nil, err
	}
	w.logger().Info("video downloaded",
		"project_id", project.ID,
		"size", humanize.Bytes(uint64(size)))

	offset := w.FrameOffset
	if offset <= 0 {
		offset = time.Second
	}

	extractCtx, cancel := context.WithTimeout(ctx, w.extractTimeout())
	defer cancel()
	image, err := w.Extractor.ExtractFrame(extractCtx, videoPath, offset)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrExtraction, "extract frame", err)
	}
	if len(image) == 0 {
		return nil, pipeline.Wrap(pipeline.ErrExtraction, "extracted frame is empty", nil)
	}

	if opts.DryRun {
		outcome.Simulated = true
		w.logger().Info("dry run, skipping upload and persist",
			"project_id", project.ID,
			"image_size", humanize.Bytes(uint64(len(image))))
		return outcome, nil
	}

	token := strconv.FormatInt(time.Now().UnixMilli(), 10)
	key := assetkey.ThumbnailKey(project.UserID, project.ID, token)

	if err := w.Objects.Upload(ctx, key, image, "image/jpeg"); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrTransport, "upload thumbnail", err)
	}

	thumbURL, err := w.Objects.ResolveURL(ctx, key)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrTransport, "resolve thumbnail url", err)
	}

	cfg := project.Config
	cfg.ThumbnailURL = thumbURL
	if err := w.Store.UpdateProjectThumbnail(ctx, project.ID, thumbURL, cfg); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrPersistence, "persist thumbnail url", err)
	}

	outcome.ThumbnailKey = key
	outcome.ThumbnailURL = thumbURL
	return outcome, nil
}

// download streams the source video into dir and returns its local path
// and size.
func (w *Worker) download(ctx context.Context, videoURL, dir string) (string, int64, error) {
	dctx, cancel := context.WithTimeout(ctx, w.downloadTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(dctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return "", 0, pipeline.Wrap(pipeline.ErrTransport, "build download request", err)
	}

	resp, err := w.httpClient().Do(req)
	if err != nil {
		return "", 0, pipeline.Wrap(pipeline.ErrTransport, "download video", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, pipeline.Wrap(pipeline.ErrTransport,
			fmt.Sprintf("download video: unexpected status %d", resp.StatusCode), nil)
	}

	videoPath := filepath.Join(dir, "source"+videoExt(videoURL))
	f, err := os.Create(videoPath)
	if err != nil {
		return "", 0, pipeline.Wrap(pipeline.ErrExtraction, "create video file", err)
	}

	size, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err != nil {
		return "", 0, pipeline.Wrap(pipeline.ErrTransport, "stream video", err)
	}
	if closeErr != nil {
		return "", 0, pipeline.Wrap(pipeline.ErrExtraction, "flush video file", closeErr)
	}

	return videoPath, size, nil
}

// videoExt pulls a usable file extension out of the video URL, defaulting
// to .mp4 when the URL path has none.
func videoExt(videoURL string) string {
	u, err := url.Parse(videoURL)
	if err != nil {
		return ".mp4"
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return ".mp4"
}
