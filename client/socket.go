package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"

	"github.com/c360/nertag/errors"
)

// Wire defaults of the socket tagging protocol.
const (
	DefaultHost = "localhost"
	DefaultPort = 1234
)

const (
	// responseCapMultiple bounds the response read relative to the
	// payload: tagged output is the input echoed with markup, so it is
	// not dramatically larger than what was sent.
	responseCapMultiple = 10
	// minResponseCap keeps the bound usable for very short payloads.
	minResponseCap = 64 * 1024
)

// SocketTransport exchanges text with a tagging server over a raw TCP
// stream. Each Exchange dials a fresh connection, writes the full
// payload, reads the reply until the server closes its side, and
// closes. The server is expected to reply to the single terminated
// line and then close the connection; the context deadline bounds the
// exchange against servers that hold the connection open.
type SocketTransport struct {
	Host string
	Port int

	// MaxResponse caps how many response bytes one exchange will read.
	// Zero means 10x the payload length with a 64 KiB floor. A reply
	// that reaches the cap is returned truncated and logged.
	MaxResponse int64

	// Logger receives a warning when a reply hits the response cap.
	// Nil disables logging.
	Logger *slog.Logger

	dialer net.Dialer
}

// NewSocketTransport returns a socket transport for host:port, filling
// in the protocol defaults for zero values.
func NewSocketTransport(host string, port int) *SocketTransport {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	return &SocketTransport{Host: host, Port: port}
}

// Kind identifies the transport in logs and metrics.
func (t *SocketTransport) Kind() string {
	return "socket"
}

// Exchange implements Transport over a raw TCP stream.
func (t *SocketTransport) Exchange(ctx context.Context, text string) (string, error) {
	addr := net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", transportErr(err, "SocketTransport", "Exchange", "dial "+addr)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", transportErr(err, "SocketTransport", "Exchange", "set deadline")
		}
	}

	if _, err := io.WriteString(conn, text); err != nil {
		return "", transportErr(err, "SocketTransport", "Exchange", "send payload")
	}

	limit := t.MaxResponse
	if limit <= 0 {
		limit = responseCapMultiple * int64(len(text))
		if limit < minResponseCap {
			limit = minResponseCap
		}
	}

	reply, err := io.ReadAll(io.LimitReader(conn, limit))
	if err != nil {
		return "", transportErr(err, "SocketTransport", "Exchange", "read response")
	}
	if int64(len(reply)) == limit && t.Logger != nil {
		t.Logger.Warn("tagger reply reached the response cap and may be truncated",
			"cap_bytes", limit,
			"addr", addr)
	}

	return string(reply), nil
}

// transportErr classifies err as a transient transport failure while
// keeping both the ErrTransport sentinel and the underlying cause
// visible to errors.Is.
func transportErr(err error, component, method, action string) error {
	return errors.WrapTransient(
		fmt.Errorf("%w: %w", errors.ErrTransport, err),
		component, method, action)
}
