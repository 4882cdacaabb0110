package manager

import "errors"

// ErrNotLoaded is returned by Transcribe when no model handle is set. Its
// text is the message clients see in the error payload.
var ErrNotLoaded = errors.New("Model not loaded. Check server logs for details.")

// tooBusyError signals queue timeout/overflow.
type tooBusyError struct{ model string }

func (e tooBusyError) Error() string { return "too busy: " + e.model }

// IsTooBusy reports whether err indicates backpressure.
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

// dependencyUnavailableError signals a missing external dependency (e.g., the
// ASR runtime binary) so callers can tell it apart from transient failures.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}
