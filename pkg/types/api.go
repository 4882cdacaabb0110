package types

// TranscribeResponse is returned by POST /transcribe. Exactly one of Text or
// Error is set; the HTTP status is 200 in both cases.
type TranscribeResponse struct {
	// Transcript of the uploaded audio. Present (possibly empty) on success.
	Text *string `json:"text,omitempty"`
	// Failure message. Present only when the request failed.
	Error *string `json:"error,omitempty"`
}

// TranscribeText builds a success payload.
func TranscribeText(text string) TranscribeResponse { return TranscribeResponse{Text: &text} }

// TranscribeError builds a failure payload.
func TranscribeError(msg string) TranscribeResponse { return TranscribeResponse{Error: &msg} }

// RootResponse is returned by GET /.
type RootResponse struct {
	Status string `json:"status"`
	// Configured model identifier.
	Model string `json:"model"`
	// Whether the model has been loaded. Reading this never triggers a load.
	ModelLoaded bool `json:"model_loaded"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Configured model identifier.
	Model string `json:"model"`
	// Lifecycle state: unloaded, loading, ready or error.
	State string `json:"state"`
	// Compute device the model is bound to; empty before the first load.
	Device string `json:"device,omitempty"`
	// Last load error, cleared on a successful load.
	LastError string `json:"last_error,omitempty"`
	// Number of load attempts since start.
	LoadAttempts uint64 `json:"load_attempts"`
	// Requests waiting for the model.
	QueueLen int `json:"queue_len"`
	// Requests currently running inference (0 or 1).
	Inflight int `json:"inflight"`
	// Maximum queued requests before backpressure.
	MaxQueueDepth int `json:"max_queue_depth"`
	// Unix seconds of the successful load, 0 if not loaded.
	LoadedAtUnix int64 `json:"loaded_at_unix,omitempty"`
	// Uptime of the server in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
}
