package logger

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// New returns a JSON logger on stdout. Timestamps are rendered in loc
// (UTC when nil); env "dev" enables debug output.
func New(env string, loc *time.Location) *slog.Logger {
	return newLogger(os.Stdout, env, loc)
}

func newLogger(w io.Writer, env string, loc *time.Location) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	if loc == nil {
		loc = time.UTC
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Time(slog.TimeKey, a.Value.Time().In(loc))
			}
			return a
		},
	})
	return slog.New(h).With("env", env)
}

// Location loads an IANA zone name; empty means UTC.
func Location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
