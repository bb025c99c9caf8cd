// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns the logger the
// request middleware stored in the context, already tagged with the request
// ID, so every line from a handler or service is correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("purchase completed", "product_id", id)
//	// → time=... level=INFO msg="purchase completed" request_id=0193... product_id=coke
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/vendo/config"
)

var L *slog.Logger

func init() {
	Setup(config.AppEnv(), os.Stdout)
}

// Setup rebuilds the base logger: JSON at INFO in production, text at DEBUG
// everywhere else.
func Setup(env string, w io.Writer) {
	L = slog.New(newHandler(env, w))
	slog.SetDefault(L)
}

func newHandler(env string, w io.Writer) slog.Handler {
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// Tee adds extra handlers next to the current base handler. Used to ship
// WARN+ records to the Mongo alert collection.
func Tee(hs ...slog.Handler) {
	all := append([]slog.Handler{L.Handler()}, hs...)
	L = slog.New(NewMultiHandler(all...))
	slog.SetDefault(L)
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base
// logger when there is none.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx. Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
