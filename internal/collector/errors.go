package collector

import (
	"errors"
	"fmt"
)

// ResolutionError reports that a search yielded no ticker.
type ResolutionError struct {
	SearchText string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no ticker found for %q", e.SearchText)
}

// RetrievalError reports that a downstream call failed, after retry where applicable.
type RetrievalError struct {
	Op         string
	SearchText string
	Ticker     string
	Err        error
}

func (e *RetrievalError) Error() string {
	subject := e.Ticker
	if subject == "" {
		subject = fmt.Sprintf("%q", e.SearchText)
	}
	return fmt.Sprintf("%s for %s failed: %v", e.Op, subject, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// IsResolutionError reports whether err means no ticker could be resolved.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// IsRetrievalError reports whether err is a downstream failure.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}
