package ffmpeg

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keepFiles = flag.Bool("keep", false, "keep generated test files for inspection")

func TestCommandBuild(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		output   string
		opts     []Option
		wantArgs []string
	}{
		{
			name:   "frame extraction",
			input:  "input.mp4",
			output: "thumb.jpg",
			opts: []Option{
				Seek(1 * time.Second),
				Scale(640, 360),
				Frames(1),
				Quality(4),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-ss", "1.000",
				"-i", "input.mp4",
				"-frames:v", "1",
				"-q:v", "4",
				"-vf", "scale=640:360",
				"thumb.jpg",
			},
		},
		{
			name:   "fractional seek",
			input:  "input.mov",
			output: "thumb.jpg",
			opts: []Option{
				Seek(1500 * time.Millisecond),
				ScaleWidth(640),
				Frames(1),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-ss", "1.500",
				"-i", "input.mov",
				"-frames:v", "1",
				"-vf", "scale=640:-2",
				"thumb.jpg",
			},
		},
		{
			name:   "h264 encoding gets faststart",
			input:  "testsrc",
			output: "output.mp4",
			opts: []Option{
				Duration(2 * time.Second),
				VideoCodec("libx264"),
				Preset("ultrafast"),
				PixelFormat("yuv420p"),
				NoAudio,
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "testsrc",
				"-t", "2.000",
				"-c:v", "libx264",
				"-preset", "ultrafast",
				"-pix_fmt", "yuv420p",
				"-an",
				"-movflags", "+faststart",
				"output.mp4",
			},
		},
		{
			name:   "filters are combined",
			input:  "input.mp4",
			output: "thumb.jpg",
			opts: []Option{
				Scale(640, 360),
				Filter("hue=s=0"),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "input.mp4",
				"-vf", "scale=640:360,hue=s=0",
				"thumb.jpg",
			},
		},
		{
			name:   "no faststart for non-mp4",
			input:  "input.mp4",
			output: "output.webm",
			opts:   []Option{ExtraArgs("-c", "copy")},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "input.mp4",
				"-c", "copy",
				"output.webm",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCommand(tt.input, tt.output, tt.opts...)
			assert.Equal(t, tt.wantArgs, cmd.Build())
		})
	}
}

func TestScaleFilter(t *testing.T) {
	tests := []struct {
		filter ScaleFilter
		want   string
	}{
		{ScaleFilter{640, 360}, "scale=640:360"},
		{ScaleFilter{1280, -2}, "scale=1280:-2"},
		{ScaleFilter{-2, 720}, "scale=-2:720"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.filter.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0.000"},
		{time.Second, "1.000"},
		{1500 * time.Millisecond, "1.500"},
		{90*time.Second + 123*time.Millisecond, "90.123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}

func TestDeriveProbePath(t *testing.T) {
	assert.Equal(t, "ffprobe", DeriveProbePath("ffmpeg"))
	assert.Equal(t, "/usr/local/bin/ffprobe", DeriveProbePath("/usr/local/bin/ffmpeg"))
	assert.Equal(t, "/usr/bin/ffprobe-static", DeriveProbePath("/usr/bin/ffmpeg-static"))
	assert.Equal(t, "ffprobe", DeriveProbePath("/opt/tools/avconv"))
}

func TestRunnerDefaults(t *testing.T) {
	r := NewRunner()
	assert.Equal(t, "ffmpeg", r.FFmpegOrDefault())
	assert.Equal(t, "ffprobe", r.FFprobeOrDefault())

	r.FFmpegPath = "/opt/tools/ffmpeg"
	assert.Equal(t, "/opt/tools/ffmpeg", r.FFmpegOrDefault())
	assert.Equal(t, "/opt/tools/ffprobe", r.FFprobeOrDefault())

	r.FFprobePath = "/elsewhere/ffprobe"
	assert.Equal(t, "/elsewhere/ffprobe", r.FFprobeOrDefault())
}

func TestRunUsesConfiguredBinary(t *testing.T) {
	var gotName string
	var gotArgs []string

	r := &Runner{FFmpegPath: "/opt/tools/ffmpeg"}
	r.execFn = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		gotName = name
		gotArgs = args
		return nil, nil, nil
	}

	err := r.Run(context.Background(), NewCommand("in.mp4", "out.jpg", Frames(1)))
	require.NoError(t, err)
	assert.Equal(t, "/opt/tools/ffmpeg", gotName)
	assert.Equal(t, []string{"-hide_banner", "-y", "-i", "in.mp4", "-frames:v", "1", "out.jpg"}, gotArgs)
}

func TestRunWrapsFailure(t *testing.T) {
	cause := errors.New("exit status 1")
	r := NewRunner()
	r.execFn = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		return nil, []byte("header noise\nsome warning\nin.mp4: No such file or directory\n"), cause
	}

	err := r.Run(context.Background(), NewCommand("in.mp4", "out.jpg"))
	require.Error(t, err)

	var ffErr *Error
	require.ErrorAs(t, err, &ffErr)
	assert.Equal(t, "ffmpeg", ffErr.Name)
	assert.Contains(t, ffErr.Error(), "No such file or directory")
	assert.Contains(t, ffErr.FullStderr(), "header noise")
	require.ErrorIs(t, err, cause)
}

func TestExtractFrameDefaults(t *testing.T) {
	var gotArgs []string
	r := NewRunner()
	r.execFn = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		gotArgs = args
		return nil, nil, nil
	}

	err := r.ExtractFrame(context.Background(), "in.mp4", "thumb.jpg", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"-hide_banner", "-y",
		"-ss", "1.000",
		"-i", "in.mp4",
		"-frames:v", "1",
		"-q:v", "4",
		"-vf", "scale=640:360",
		"thumb.jpg",
	}, gotArgs)
}

func TestProbeParsesOutput(t *testing.T) {
	probeJSON := `{
		"format": {
			"filename": "in.mp4",
			"format_name": "mov,mp4,m4a,3gp,3g2,mj2",
			"duration": "12.480000",
			"size": "1048576",
			"bit_rate": "672000"
		},
		"streams": [
			{
				"index": 0,
				"codec_type": "video",
				"codec_name": "h264",
				"width": 640,
				"height": 360,
				"r_frame_rate": "30000/1001",
				"pix_fmt": "yuv420p"
			},
			{
				"index": 1,
				"codec_type": "audio",
				"codec_name": "aac",
				"sample_rate": "48000",
				"channels": 2,
				"channel_layout": "stereo"
			}
		]
	}`

	var gotName string
	r := &Runner{FFmpegPath: "/opt/tools/ffmpeg"}
	r.execFn = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		gotName = name
		return []byte(probeJSON), nil, nil
	}

	result, err := r.Probe(context.Background(), "in.mp4")
	require.NoError(t, err)
	assert.Equal(t, "/opt/tools/ffprobe", gotName)
	assert.Equal(t, 640, result.Width)
	assert.Equal(t, 360, result.Height)
	assert.InDelta(t, 29.97, result.FPS, 0.01)
	assert.Equal(t, "h264", result.VideoCodec)
	assert.Equal(t, "yuv420p", result.PixelFormat)
	assert.Equal(t, "aac", result.AudioCodec)
	assert.Equal(t, 2, result.AudioChannels)
	assert.Equal(t, 48000, result.AudioSampleRate)
	assert.InDelta(t, 12.48, result.Duration, 0.001)
	assert.Equal(t, int64(672000), result.Bitrate)
	assert.Equal(t, int64(1048576), result.Size)
	assert.Equal(t, 1, result.VideoStreams)
	assert.Equal(t, 1, result.AudioStreams)
}

func TestParseFrameRate(t *testing.T) {
	assert.Equal(t, 30.0, parseFrameRate("30/1"))
	assert.InDelta(t, 29.97, parseFrameRate("30000/1001"), 0.01)
	assert.Equal(t, 0.0, parseFrameRate("0/0"))
	assert.Equal(t, 0.0, parseFrameRate("garbage"))
}

// generateTestVideo creates a short synthetic test video using ffmpeg's
// testsrc2 generator.
func generateTestVideo(t *testing.T, dir string, duration time.Duration) string {
	t.Helper()

	out := filepath.Join(dir, "test-input.mp4")
	args := []string{
		"-hide_banner", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc2=duration=%s:size=640x360:rate=24", formatDuration(duration)),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		out,
	}

	r := NewRunner()
	require.NoError(t, r.run(context.Background(), args), "generating test video requires ffmpeg")

	if *keepFiles {
		t.Logf("keeping test video: %s", out)
	}
	return out
}

func TestIntegration_ExtractFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires ffmpeg")
	}

	ctx := context.Background()
	dir := t.TempDir()
	in := generateTestVideo(t, dir, 3*time.Second)

	out := filepath.Join(dir, "thumb.jpg")
	r := NewRunner()
	require.NoError(t, r.ExtractFrame(ctx, in, out, nil))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestIntegration_Probe(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires ffprobe")
	}

	ctx := context.Background()
	dir := t.TempDir()
	in := generateTestVideo(t, dir, 3*time.Second)

	r := NewRunner()
	result, err := r.Probe(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 640, result.Width)
	assert.Equal(t, 360, result.Height)
	assert.Equal(t, "h264", result.VideoCodec)
	assert.InDelta(t, 3.0, result.Duration, 0.2)
}
