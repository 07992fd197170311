package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
)

// preinitLogger installs a console logger until the profile is known.
func preinitLogger() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

// newLogger builds the process logger. Dev and demo modes log to the
// console. Prod writes JSON to out and mirrors errors to the console.
func newLogger(mode string, out io.Writer) *slog.Logger {
	router := slogmulti.Router()

	if mode != "prod" {
		router = router.Add(console.NewHandler(os.Stderr, &console.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		}))
		return slog.New(router.Handler())
	}

	router = router.Add(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	router = router.Add(
		console.NewHandler(os.Stderr, &console.HandlerOptions{AddSource: true, Level: slog.LevelError}),
		func(_ context.Context, r slog.Record) bool {
			return r.Level >= slog.LevelError
		},
	)
	return slog.New(router.Handler())
}
