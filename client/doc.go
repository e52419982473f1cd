// Package client talks to a remote named-entity tagging server and
// turns its replies into entity maps.
//
// # Overview
//
// A Client wraps a Transport, which carries one round trip to the
// tagger. Two transports are provided: SocketTransport writes the
// text over a raw TCP connection and reads the tagged reply, and
// HTTPTransport posts a form to the tagger's HTTP endpoint. Both are
// stateless; every call dials or requests fresh, so a Client is safe
// for concurrent use.
//
//	c, err := client.NewSocket("localhost", 1234,
//		client.WithFormat(format.SlashTags))
//	if err != nil { ... }
//	entities, err := c.ExtractEntities(ctx, "John Smith lives in Paris")
//
// # Normalization
//
// The tagger treats a newline as end of input, so TagText strips
// control whitespace (\f \n \r \t \v) from the text and appends a
// single trailing newline before handing it to the transport.
// Callers that need multi-line handling should submit lines
// separately.
//
// # Timeouts
//
// Every call runs under the client timeout (default 30s) layered on
// the caller's context. The socket transport applies the resulting
// deadline to the connection; the HTTP transport passes it through
// the request context.
//
// # Errors
//
// Transport failures wrap errors.ErrTransport and classify as
// transient, so callers can retry with pkg/retry. Configuration
// mistakes surface at construction time as invalid errors and are
// never retried.
package client
