package util

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	appLogger  zerolog.Logger
	loggerOnce sync.Once
)

func newLogger(appEnv string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if appEnv == "" || appEnv == "development" || appEnv == "test" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "medlink").Logger()
}

// InitLogger configures the application logger. Development and test
// environments get a human-readable console writer, everything else JSON.
func InitLogger(appEnv string) *zerolog.Logger {
	l := newLogger(appEnv)
	SetLogger(l)
	return Logger()
}

// SetLogger replaces the application logger, e.g. with one writing to a buffer in tests.
func SetLogger(l zerolog.Logger) {
	loggerOnce.Do(func() {})
	appLogger = l
}

// Logger returns the application logger, building it from APPENV on first use.
func Logger() *zerolog.Logger {
	loggerOnce.Do(func() {
		appLogger = newLogger(os.Getenv("APPENV"))
	})
	return &appLogger
}
