package domain

import (
	"errors"
	"fmt"
)

// ProviderError is the structured failure a provider reports instead of a
// candidate. Fatal errors (bad credential, unsupported provider) abort the
// run immediately; everything else is retried within budget.
type ProviderError struct {
	Provider string
	Reason   string
	Fatal    bool
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsFatalProviderError reports whether err carries a non-recoverable
// provider failure.
func IsFatalProviderError(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Fatal
}

// ErrEmptyRequest is returned when the user supplied no request text.
var ErrEmptyRequest = errors.New("request text is empty")
