package logger

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Heidric/workify/pkg/log"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var nop = zerolog.Nop()

// Log is the process logger. It stays a no-op logger until Initialize runs,
// so packages can derive child loggers in tests without setup.
var Log = &nop

type Logger struct {
	zl zerolog.Logger
}

func Initialize(cfg *log.Config) (*Logger, error) {
	if cfg == nil {
		return nil, errors.New("logger config is nil")
	}
	cfg.SetDefault()

	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zl := zerolog.New(out).
		Level(cfg.ZerologLevel()).
		With().
		Timestamp().
		Str("service", "workify").
		Logger()

	Log = &zl

	return &Logger{zl: zl}, nil
}

func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// Middleware logs one line per request once the handler has returned.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var ev *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				ev = Log.Error()
			case status >= http.StatusBadRequest:
				ev = Log.Warn()
			default:
				ev = Log.Info()
			}

			ev.Str("name", "http").
				Str("requestId", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()

		next.ServeHTTP(ww, r)
	})
}
