package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/c360/nertag/errors"
	"github.com/c360/nertag/format"
)

// DefaultPath is the request path the reference HTTP tagging servlet
// is deployed under.
const DefaultPath = "/stanford-ner/ner"

// HTTPTransport exchanges text with a tagging server over HTTP. Each
// Exchange issues one POST with form-encoded fields: input,
// outputFormat, preserveSpacing, and classifier when one is set. The
// response body is the raw tagged text.
type HTTPTransport struct {
	Host string
	Port int
	Path string

	// Classifier names a server-side model. Empty omits the field and
	// lets the server use its default.
	Classifier string

	// PreserveSpacing is forwarded to the server, which uses it to
	// decide whether the tagged echo keeps the input's spacing.
	PreserveSpacing bool

	// OutputFormat is sent in the outputFormat field. The client
	// facade keeps it in sync with its configured format.
	OutputFormat format.Format

	// HTTPClient overrides the default client, for custom timeouts or
	// transports. Nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// NewHTTPTransport returns an HTTP transport for host:port with the
// servlet's defaults: the standard request path, spacing preserved,
// and no classifier override.
func NewHTTPTransport(host string, port int) *HTTPTransport {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	return &HTTPTransport{
		Host:            host,
		Port:            port,
		Path:            DefaultPath,
		PreserveSpacing: true,
	}
}

// Kind identifies the transport in logs and metrics.
func (t *HTTPTransport) Kind() string {
	return "http"
}

// Exchange implements Transport over a single HTTP POST.
func (t *HTTPTransport) Exchange(ctx context.Context, text string) (string, error) {
	form := url.Values{}
	form.Set("input", text)
	form.Set("outputFormat", t.OutputFormat.String())
	form.Set("preserveSpacing", strconv.FormatBool(t.PreserveSpacing))
	if t.Classifier != "" {
		form.Set("classifier", t.Classifier)
	}

	endpoint := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(t.Host, strconv.Itoa(t.Port)),
		Path:   t.Path,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.WrapInvalid(err, "HTTPTransport", "Exchange", "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")

	httpClient := t.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", transportErr(err, "HTTPTransport", "Exchange", "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportErr(err, "HTTPTransport", "Exchange", "read response")
	}

	if resp.StatusCode >= 400 {
		return "", transportErr(fmt.Errorf("unexpected status %s", resp.Status),
			"HTTPTransport", "Exchange", "check status")
	}

	return string(body), nil
}
