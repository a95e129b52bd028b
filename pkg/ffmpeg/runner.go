package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes ffmpeg and ffprobe with configurable binary paths. The
// zero value is usable and resolves both tools through PATH.
type Runner struct {
	// FFmpegPath is the ffmpeg executable. Defaults to "ffmpeg" (PATH lookup).
	FFmpegPath string

	// FFprobePath is the ffprobe executable. When unset it is derived from
	// the ffmpeg path, so a custom tool directory configures both binaries
	// at once.
	FFprobePath string

	execFn func(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// NewRunner returns a Runner resolving ffmpeg and ffprobe through PATH.
func NewRunner() *Runner {
	return &Runner{}
}

// FFmpegOrDefault returns the configured ffmpeg path or "ffmpeg" if unset.
func (r *Runner) FFmpegOrDefault() string {
	if strings.TrimSpace(r.FFmpegPath) == "" {
		return "ffmpeg"
	}
	return r.FFmpegPath
}

// FFprobeOrDefault returns the configured ffprobe path, deriving it from the
// ffmpeg path when unset.
func (r *Runner) FFprobeOrDefault() string {
	if strings.TrimSpace(r.FFprobePath) != "" {
		return r.FFprobePath
	}
	return DeriveProbePath(r.FFmpegOrDefault())
}

// DeriveProbePath maps an ffmpeg executable path to its sibling ffprobe
// (/opt/tools/ffmpeg -> /opt/tools/ffprobe). Paths that do not mention
// ffmpeg fall back to plain "ffprobe".
func DeriveProbePath(ffmpegPath string) string {
	if !strings.Contains(ffmpegPath, "ffmpeg") {
		return "ffprobe"
	}
	return strings.Replace(ffmpegPath, "ffmpeg", "ffprobe", 1)
}

func (r *Runner) exec(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error) {
	if r.execFn != nil {
		return r.execFn(ctx, name, args...)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Run builds and executes an ffmpeg command, waiting for completion.
func (r *Runner) Run(ctx context.Context, cmd *Command) error {
	return r.run(ctx, cmd.Build())
}

func (r *Runner) run(ctx context.Context, args []string) error {
	name := r.FFmpegOrDefault()
	_, stderr, err := r.exec(ctx, name, args...)
	if err != nil {
		return wrapError(name, args, stderr, err)
	}
	return nil
}

// Error represents an ffmpeg or ffprobe execution error with context.
type Error struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements error.
func (e *Error) Error() string {
	// Extract just the last few lines of stderr for the error message
	lines := strings.Split(strings.TrimSpace(e.Stderr), "\n")
	var lastLines string
	if len(lines) > 3 {
		lastLines = strings.Join(lines[len(lines)-3:], "\n")
	} else {
		lastLines = strings.Join(lines, "\n")
	}

	if lastLines != "" {
		return fmt.Sprintf("%s: %v: %s", filepath.Base(e.Name), e.Err, lastLines)
	}
	return fmt.Sprintf("%s: %v", filepath.Base(e.Name), e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// FullStderr returns the complete stderr output.
func (e *Error) FullStderr() string {
	return e.Stderr
}

// Command returns the command that was executed.
func (e *Error) Command() string {
	return e.Name + " " + strings.Join(e.Args, " ")
}

func wrapError(name string, args []string, stderr []byte, cause error) error {
	exitCode := 0
	var ee *exec.ExitError
	if errors.As(cause, &ee) {
		exitCode = ee.ExitCode()
	}

	return &Error{
		Name:     name,
		Args:     args,
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(string(stderr)),
		Err:      cause,
	}
}
