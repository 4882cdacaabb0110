package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"asrd/internal/manager"
	"asrd/internal/transcribe"
	"asrd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ModelName() string
	// Loaded reports whether the model is in memory. It never triggers a load.
	Loaded() bool
	Status() types.StatusResponse
	// Run transcribes one upload, loading the model first if needed.
	Run(ctx context.Context, upload io.Reader) transcribe.Result
}

// Backend bundles the model manager with the transcription pipeline.
type Backend struct {
	*manager.Manager
	*transcribe.Service
}

var _ Service = Backend{}

// uploadField is the multipart field carrying the audio file.
const uploadField = "file"

var errNoFilePart = errors.New("multipart body has no file part")

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(MetricsMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.RootResponse{Status: "ok", Model: svc.ModelName(), ModelLoaded: svc.Loaded()})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Loaded() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Post("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)
		upload, err := openUpload(r)
		if err != nil {
			logRequest(r, lvl, LevelError, http.StatusUnprocessableEntity, start, err, "transcribe rejected")
			writeTranscribe(w, http.StatusUnprocessableEntity, types.TranscribeError(err.Error()))
			return
		}
		logRequest(r, lvl, LevelDebug, 0, start, nil, "transcribe start")

		// Shutdown cancels in-flight work as well as client disconnects.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		res := svc.Run(ctx, upload)
		if res.Err != nil {
			if manager.IsTooBusy(res.Err) {
				IncrementBackpressure("queue")
			}
			logRequest(r, lvl, LevelError, http.StatusOK, start, res.Err, "transcribe end")
			writeTranscribe(w, http.StatusOK, types.TranscribeError(res.Err.Error()))
			return
		}
		logRequest(r, lvl, LevelInfo, http.StatusOK, start, nil, "transcribe end")
		writeTranscribe(w, http.StatusOK, types.TranscribeText(res.Text))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// openUpload returns a reader over the audio file part: the part named "file",
// or the first file part when none carries that name. The part named "file"
// is streamed; a preceding fallback part is buffered, bounded by the upload limit.
func openUpload(r *http.Request) (io.Reader, error) {
	ct := r.Header.Get("Content-Type")
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || !strings.EqualFold(mt, "multipart/form-data") {
		return nil, errors.New("Content-Type must be multipart/form-data")
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	var fallback []byte
	haveFallback := false
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadField {
			return part, nil
		}
		if !haveFallback && part.FileName() != "" {
			// one byte past the limit is enough for the pipeline to report the overflow
			var src io.Reader = part
			if maxUploadBytes > 0 {
				src = io.LimitReader(part, maxUploadBytes+1)
			}
			if fallback, err = io.ReadAll(src); err != nil {
				return nil, err
			}
			haveFallback = true
		}
		part.Close()
	}
	if !haveFallback {
		return nil, errNoFilePart
	}
	return bytes.NewReader(fallback), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
