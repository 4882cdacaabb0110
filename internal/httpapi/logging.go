package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetRequestLogLevel sets the default per-request log level
// (off|error|info|debug). Requests may override it.
func SetRequestLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logRequest emits one line when the request level admits min. status 0
// omits the status field.
func logRequest(r *http.Request, lvl, min LogLevel, status int, start time.Time, err error, msg string) {
	if lvl < min {
		return
	}
	rid := middleware.GetReqID(r.Context())
	if zlog == nil {
		log.Printf("%s path=%s status=%d dur=%s request_id=%s err=%v", msg, r.URL.Path, status, time.Since(start), rid, err)
		return
	}
	ev := zlog.Info()
	switch {
	case err != nil:
		ev = zlog.Error().Err(err)
	case min == LevelDebug:
		ev = zlog.Debug()
	}
	ev = ev.Str("path", r.URL.Path).Dur("dur", time.Since(start))
	if status != 0 {
		ev = ev.Int("status", status)
	}
	if rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Msg(msg)
}
