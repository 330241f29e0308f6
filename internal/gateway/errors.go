package gateway

import "errors"

var (
	// ErrEmptyQuery indicates the lookup query was blank after trimming.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrProviderUnavailable indicates the provider could not serve any
	// part of the lookup.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// NotFoundError is returned when the provider confirms there are no
// matches for the query. Distinct from transport failure: the provider
// answered, and said no.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }
