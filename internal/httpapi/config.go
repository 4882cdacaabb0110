package httpapi

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty methods
// or headers fall back to what the transcription client needs.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(headers) == 0 {
		headers = []string{"Content-Type", "X-Request-Id", "X-Log-Level"}
	}
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// maxUploadBytes bounds how much of a buffered upload part is held in memory;
// 0 means no bound. The pipeline enforces the same limit on what it reads.
var maxUploadBytes int64

// SetMaxUploadBytes configures the upload bound; negative values disable it.
func SetMaxUploadBytes(n int64) {
	if n < 0 {
		n = 0
	}
	maxUploadBytes = n
}
