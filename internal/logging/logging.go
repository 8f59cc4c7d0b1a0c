package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"pokedotduel/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	outMu sync.RWMutex
	out   io.Writer = os.Stdout
)

// Init configures the global zerolog logger. The returned closer releases the
// log file when LOG_FILE is set and is a no-op otherwise.
func Init(cfg config.LogConfig) (io.Closer, error) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var raw io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		fw, err := newRotatingWriter(cfg.File, cfg.MaxMB)
		if err != nil {
			return nil, err
		}
		raw = io.MultiWriter(os.Stdout, fw)
		closer = fw
	}

	console := raw
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: raw}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(console).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger

	outMu.Lock()
	out = raw
	outMu.Unlock()
	return closer, nil
}

// Writer is the raw destination chosen by Init, for handlers that format
// their own records (the HTTP request logger).
func Writer() io.Writer {
	outMu.RLock()
	defer outMu.RUnlock()
	return out
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
