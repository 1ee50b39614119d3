// Package ffmpeg runs the ffmpeg binary when the platform has one.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gaborage/bridgekit/logger"
	"github.com/gaborage/bridgekit/platform"
)

const (
	opFFmpeg  = "ffmpeg"
	opRun     = "ffmpeg.run"
	opVersion = "ffmpeg.version"

	// DefaultBinary is looked up on PATH when Config.Binary is empty.
	DefaultBinary = "ffmpeg"

	waitDelay = 500 * time.Millisecond
)

// ErrUnavailable is returned on web and when no ffmpeg binary can be found.
// Match it with errors.Is.
var ErrUnavailable = platform.NewError(codes.Unavailable, opFFmpeg, "ffmpeg is not available", nil)

// Config locates the binary.
type Config struct {
	Binary string
	// Timeout bounds each Run. Zero means only the caller's context applies.
	Timeout time.Duration
}

// Result is the outcome of a finished run.
type Result struct {
	RunID    string
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Service wraps the ffmpeg binary.
type Service interface {
	Available(ctx context.Context) bool
	// Version returns the version token of `ffmpeg -version`, e.g. "6.1.1".
	Version(ctx context.Context) (string, error)
	Run(ctx context.Context, args ...string) (*Result, error)
}

// New returns the ffmpeg service for kind. Web never runs a binary.
func New(kind platform.Kind, cfg Config, log logger.Logger) Service {
	if kind == platform.Web {
		return webService{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	return &desktopService{cfg: cfg, logger: log}
}

type webService struct{}

func (webService) Available(context.Context) bool                  { return false }
func (webService) Version(context.Context) (string, error)         { return "", ErrUnavailable }
func (webService) Run(context.Context, ...string) (*Result, error) { return nil, ErrUnavailable }

type desktopService struct {
	cfg    Config
	logger logger.Logger
}

func (s *desktopService) Available(_ context.Context) bool {
	_, err := s.binary()
	return err == nil
}

func (s *desktopService) binary() (string, error) {
	path, err := exec.LookPath(s.cfg.Binary)
	if err != nil {
		return "", platform.NewError(codes.Unavailable, opFFmpeg, fmt.Sprintf("binary %q not found", s.cfg.Binary), err)
	}
	return path, nil
}

func (s *desktopService) Version(ctx context.Context) (string, error) {
	res, err := s.Run(ctx, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(res.Stdout), "\n")
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[1] != "version" {
		return "", platform.NewError(codes.Internal, opVersion, fmt.Sprintf("unexpected version output %q", line), nil)
	}
	return fields[2], nil
}

func (s *desktopService) Run(ctx context.Context, args ...string) (*Result, error) {
	path, err := s.binary()
	if err != nil {
		return nil, err
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	s.logger.Debug().
		Str("run_id", runID).
		Str("binary", path).
		Interface("args", args).
		Msg("Starting ffmpeg")

	start := time.Now()
	err = cmd.Run()
	res := &Result{RunID: runID, Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Duration: time.Since(start)}
	if err != nil {
		runErr := runError(ctx, err, &stderr)
		s.logger.Warn().
			Err(err).
			Str("run_id", runID).
			Dur("elapsed", res.Duration).
			Msg("ffmpeg run failed")
		return res, runErr
	}

	s.logger.Info().
		Str("run_id", runID).
		Dur("elapsed", res.Duration).
		Msg("ffmpeg run finished")
	return res, nil
}

func runError(ctx context.Context, err error, stderr *bytes.Buffer) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return platform.NewError(status.FromContextError(ctxErr).Code(), opRun, "ffmpeg run interrupted", ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := fmt.Sprintf("ffmpeg exited with code %d", exitErr.ExitCode())
		if tail := lastLine(stderr.String()); tail != "" {
			msg += ": " + tail
		}
		return platform.NewError(codes.Internal, opRun, msg, err)
	}
	return platform.NewError(codes.Internal, opRun, "ffmpeg could not be started", err)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
