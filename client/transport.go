package client

import (
	"context"
	"strings"
)

// Transport performs one blocking request-response exchange with a
// tagging server. Implementations open their network resource inside
// Exchange and close it before returning, on every path, so a client
// holds no connection state between calls. Implementations must be
// safe for concurrent use; each call owns its own connection.
type Transport interface {
	// Exchange sends a normalized text payload to the tagging server
	// and returns the raw tagged response. Failures are classified as
	// transient transport errors and are never retried here; callers
	// retry at a higher layer if at all.
	Exchange(ctx context.Context, text string) (string, error)

	// Kind identifies the transport in logs and metrics.
	Kind() string
}

var normalizeReplacer = strings.NewReplacer(
	"\f", "",
	"\n", "",
	"\r", "",
	"\t", "",
	"\v", "",
)

// Normalize prepares raw input for the wire: every form-feed, newline,
// carriage-return, tab, and vertical-tab is removed, then exactly one
// trailing newline is appended so the server receives a single
// terminated line. Normalize is idempotent.
func Normalize(text string) string {
	return normalizeReplacer.Replace(text) + "\n"
}
