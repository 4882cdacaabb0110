package httpapi

import (
	"net/http"

	"asrd/pkg/types"
)

// writeTranscribe writes a /transcribe payload. Processing failures use 200
// with an error field; clients inspect the body, not the status code.
func writeTranscribe(w http.ResponseWriter, status int, resp types.TranscribeResponse) {
	writeJSON(w, status, resp)
}
