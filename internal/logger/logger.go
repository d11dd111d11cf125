package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	"github.com/templui/secondbrain/internal/config"
)

// Log is the global logger instance
var Log *slog.Logger

// Init installs the default logger and returns a flush func for shutdown.
// Development: Text format with Debug level
// Production: JSON format with Info level
// With SENTRY_DSN set, error records are also sent to Sentry.
func Init(cfg *config.Config) func() {
	return initWith(os.Stdout, cfg)
}

func initWith(out io.Writer, cfg *config.Config) func() {
	handlers := []slog.Handler{baseHandler(out, cfg.IsDevelopment())}
	flush := func() {}

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.AppEnv,
			ServerName:       cfg.AppName,
			AttachStacktrace: true,
		})
		if err != nil {
			slog.New(handlers[0]).Warn("sentry disabled", "error", err)
		} else {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
			flush = func() { sentry.Flush(2 * time.Second) }
		}
	}

	// Use multi-handler if we have multiple, otherwise use single
	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	Log = slog.New(handler).With("app", cfg.AppName, "env", cfg.AppEnv)
	slog.SetDefault(Log)
	return flush
}

func baseHandler(out io.Writer, isDev bool) slog.Handler {
	if isDev {
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
}
