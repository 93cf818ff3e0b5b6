package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level   string
	Pretty  bool
	File    string
	MaxAge  time.Duration
	Rotate  time.Duration
	Service string
	Output  io.Writer
}

// New builds a zerolog logger from cfg. When File is set, output is also
// written to a daily rotated file next to it. The returned closer releases
// the file handle and is never nil.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var console io.Writer = cfg.Output
	if console == nil {
		console = os.Stdout
	}
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		rl, err := newRotator(cfg)
		if err != nil {
			return zerolog.Nop(), closer, err
		}
		writers = append(writers, rl)
		closer = rl
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return ctx.Logger(), closer, nil
}

func newRotator(cfg Config) (*rotatelogs.RotateLogs, error) {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	rotate := cfg.Rotate
	if rotate <= 0 {
		rotate = 24 * time.Hour
	}

	ext := filepath.Ext(cfg.File)
	base := cfg.File[:len(cfg.File)-len(ext)]

	rl, err := rotatelogs.New(
		base+".%Y%m%d"+ext,
		rotatelogs.WithLinkName(cfg.File),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return rl, nil
}

// SetGlobal makes l the package-level logger used by zerolog/log.
func SetGlobal(l zerolog.Logger) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
