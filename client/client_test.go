package client

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nertag/errors"
	"github.com/c360/nertag/format"
	"github.com/c360/nertag/metric"
)

// scriptedTransport returns a canned reply and records every payload
// Exchange was handed.
type scriptedTransport struct {
	reply string
	err   error
	sent  []string
}

func (s *scriptedTransport) Exchange(_ context.Context, text string) (string, error) {
	s.sent = append(s.sent, text)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *scriptedTransport) Kind() string { return "scripted" }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "John Smith", "John Smith\n"},
		{"strips control whitespace", "a\tb\nc\rd\fe\vf", "abcdef\n"},
		{"empty input", "", "\n"},
		{"spaces survive", "New York  is big", "New York  is big\n"},
		{"already terminated", "text\n", "text\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Normalize(test.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize("John\tSmith\nlives here")
	assert.Equal(t, once, Normalize(once))
}

func TestNew_NilTransport(t *testing.T) {
	c, err := New(nil)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.True(t, stderrors.Is(err, errors.ErrMissingConfig))
	assert.True(t, errors.IsInvalid(err))
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(&scriptedTransport{})
	require.NoError(t, err)

	assert.Equal(t, format.InlineXML, c.Format())
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.NotNil(t, c.logger)
	assert.Nil(t, c.metrics)
}

func TestNewSocket_Defaults(t *testing.T) {
	c, err := NewSocket("", 0)
	require.NoError(t, err)

	tr, ok := c.transport.(*SocketTransport)
	require.True(t, ok)
	assert.Equal(t, DefaultHost, tr.Host)
	assert.Equal(t, DefaultPort, tr.Port)
	assert.NotNil(t, tr.Logger)
}

func TestNewHTTP_SyncsFormatToTransport(t *testing.T) {
	c, err := NewHTTP("localhost", 8080, WithFormat(format.SlashTags))
	require.NoError(t, err)

	tr, ok := c.transport.(*HTTPTransport)
	require.True(t, ok)
	assert.Equal(t, format.SlashTags, tr.OutputFormat)
	assert.Equal(t, DefaultPath, tr.Path)
	assert.True(t, tr.PreserveSpacing)
}

func TestWithFormat_Invalid(t *testing.T) {
	for _, bad := range []string{"", "json", "slashtags", "XML", "inlineXml"} {
		t.Run("format "+bad, func(t *testing.T) {
			c, err := New(&scriptedTransport{}, WithFormat(format.Format(bad)))
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidOutputFormat))
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestWithTimeout_Invalid(t *testing.T) {
	_, err := New(&scriptedTransport{}, WithTimeout(0))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))

	_, err = New(&scriptedTransport{}, WithTimeout(-time.Second))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := New(&scriptedTransport{}, WithLogger(nil))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
}

func TestHTTPOptions_RequireHTTPTransport(t *testing.T) {
	opts := map[string]Option{
		"WithPath":            WithPath("/ner"),
		"WithClassifier":      WithClassifier("english.all.3class"),
		"WithPreserveSpacing": WithPreserveSpacing(false),
		"WithHTTPClient":      WithHTTPClient(nil),
	}

	for name, opt := range opts {
		t.Run(name, func(t *testing.T) {
			_, err := NewSocket("localhost", 1234, opt)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestWithMaxResponse_RequiresSocketTransport(t *testing.T) {
	_, err := NewHTTP("localhost", 8080, WithMaxResponse(1024))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))

	_, err = NewSocket("localhost", 1234, WithMaxResponse(0))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))

	c, err := NewSocket("localhost", 1234, WithMaxResponse(4096))
	require.NoError(t, err)
	tr := c.transport.(*SocketTransport)
	assert.Equal(t, int64(4096), tr.MaxResponse)
}

func TestClient_TagText_NormalizesInput(t *testing.T) {
	tr := &scriptedTransport{reply: "tagged"}
	c, err := New(tr)
	require.NoError(t, err)

	got, err := c.TagText(context.Background(), "New\nYork\tcalling")
	require.NoError(t, err)
	assert.Equal(t, "tagged", got)

	require.Len(t, tr.sent, 1)
	assert.Equal(t, "NewYorkcalling\n", tr.sent[0])
}

func TestClient_TagText_TransportError(t *testing.T) {
	cause := transportErr(stderrors.New("connection refused"),
		"SocketTransport", "Exchange", "dial localhost:1234")
	c, err := New(&scriptedTransport{err: cause})
	require.NoError(t, err)

	_, err = c.TagText(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrTransport))
	assert.True(t, errors.IsTransient(err))
}

func TestClient_ExtractEntities_SlashTags(t *testing.T) {
	tr := &scriptedTransport{reply: "New/LOCATION York/LOCATION is/O big/O"}
	c, err := New(tr, WithFormat(format.SlashTags))
	require.NoError(t, err)

	entities, err := c.ExtractEntities(context.Background(), "New York is big")
	require.NoError(t, err)

	expected := format.EntityMap{
		"LOCATION": {"New York"},
		"O":        {"is big"},
	}
	assert.Equal(t, expected, entities)
}

func TestClient_ExtractEntities_InlineXML(t *testing.T) {
	tr := &scriptedTransport{
		reply: "<PERSON>John Smith</PERSON> lives in <LOCATION>Paris</LOCATION>",
	}
	c, err := New(tr)
	require.NoError(t, err)

	entities, err := c.ExtractEntities(context.Background(), "John Smith lives in Paris")
	require.NoError(t, err)

	expected := format.EntityMap{
		"PERSON":   {"John Smith"},
		"LOCATION": {"Paris"},
	}
	assert.Equal(t, expected, entities)
}

func TestClient_ExtractEntities_LenientOnUnparseableReply(t *testing.T) {
	tr := &scriptedTransport{reply: "<html><body>java.lang.OutOfMemoryError</body></html>"}
	c, err := New(tr, WithFormat(format.SlashTags))
	require.NoError(t, err)

	entities, err := c.ExtractEntities(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestClient_ExtractEntities_TransportError(t *testing.T) {
	cause := transportErr(stderrors.New("timeout"), "SocketTransport", "Exchange", "read response")
	c, err := New(&scriptedTransport{err: cause})
	require.NoError(t, err)

	entities, err := c.ExtractEntities(context.Background(), "text")
	require.Error(t, err)
	assert.Nil(t, entities)
	assert.True(t, errors.IsTransient(err))
}

func TestClient_WithMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	tr := &scriptedTransport{reply: "Paris/LOCATION"}
	c, err := New(tr,
		WithFormat(format.SlashTags),
		WithMetrics(registry))
	require.NoError(t, err)
	require.NotNil(t, c.metrics)

	_, err = c.ExtractEntities(context.Background(), "Paris")
	require.NoError(t, err)

	// Failure path exercises the error outcome label.
	c2, err := New(&scriptedTransport{err: stderrors.New("boom")},
		WithMetrics(registry))
	require.NoError(t, err)
	_, err = c2.TagText(context.Background(), "Paris")
	require.Error(t, err)
}

func TestClient_WithMetrics_NilRegistry(t *testing.T) {
	c, err := New(&scriptedTransport{reply: "ok"}, WithMetrics(nil))
	require.NoError(t, err)
	assert.Nil(t, c.metrics)

	_, err = c.TagText(context.Background(), "text")
	require.NoError(t, err)
}
