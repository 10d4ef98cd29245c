// Package fault holds the error taxonomy shared by every stage of a renaming run.
package fault

import "errors"

var (
	// ErrEmptySelection means there was nothing to rename. Runs treat it as a
	// completed no-op rather than a failure.
	ErrEmptySelection = errors.New("empty selection")

	// ErrTransport covers network failures and non-2xx completion responses.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse means the completion could not be decoded, or held
	// neither a JSON object nor an outline.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoNamesFound means the parser ran but extracted zero entries.
	ErrNoNamesFound = errors.New("no names found in response")

	// ErrPartialApplication means some suggested names matched no layer. The
	// run still completes; it is reported as a warning.
	ErrPartialApplication = errors.New("partial application")

	// ErrInvalidNames means the parser rejected some suggested names. Like a
	// partial application it is a warning, not a failure.
	ErrInvalidNames = errors.New("invalid names")
)

// Kind names the taxonomy bucket of err, or "internal" when it is none of them.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptySelection):
		return "empty_selection"
	case errors.Is(err, ErrTransport):
		return "transport_failure"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrNoNamesFound):
		return "no_names_found"
	case errors.Is(err, ErrPartialApplication):
		return "partial_application"
	case errors.Is(err, ErrInvalidNames):
		return "invalid_names"
	default:
		return "internal"
	}
}
