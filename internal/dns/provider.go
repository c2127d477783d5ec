package dns

import (
	"context"
	"fmt"
	"net/http"
)

// Result is the outcome of a single record update as reported by the
// provider.
type Result struct {
	StatusCode int
}

// OK reports whether the provider accepted the update.
func (r Result) OK() bool {
	return r.StatusCode == http.StatusOK
}

// String renders the result as "OK" or "ERROR: Code <status>".
func (r Result) String() string {
	if r.OK() {
		return "OK"
	}
	return fmt.Sprintf("ERROR: Code %d", r.StatusCode)
}

// Provider updates the DNS record identified by an access token so that it
// points at the caller's address.
//
// A non-success status is reported through Result, never as an error; the
// error return is reserved for transport failures.
type Provider interface {
	UpdateHost(ctx context.Context, token string) (Result, error)
}
