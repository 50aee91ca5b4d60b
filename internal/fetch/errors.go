package fetch

import (
	"errors"
	"fmt"
)

// TransportError covers network failures, timeouts, and non-2xx responses.
// The caller may retry; the fetcher itself never does.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch: http %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("fetch: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError means the response arrived but the result table was not where
// the upstream contract says it should be. This is how layout changes show up;
// it is not retryable and must stop the run rather than read as "no more pages".
type SchemaError struct {
	URL    string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("fetch: schema: %s (%s)", e.Reason, e.URL)
}

// IsTransport reports whether any error in the chain is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsSchema reports whether any error in the chain is a SchemaError.
func IsSchema(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
