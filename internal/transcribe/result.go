// Package transcribe runs one upload through decode, temp WAV and inference,
// returning an explicit Result instead of raising.
package transcribe

// Result is either a transcript or an error, never both.
type Result struct {
	Text string
	Err  error
}

// Success wraps a transcript.
func Success(text string) Result { return Result{Text: text} }

// Failure wraps a processing error.
func Failure(err error) Result { return Result{Err: err} }

// OK reports whether the result carries a transcript.
func (r Result) OK() bool { return r.Err == nil }
