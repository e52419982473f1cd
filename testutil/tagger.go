package testutil

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// TaggerScript maps submitted text to the tagged reply a fake tagger
// returns. Keys are the text as the client normalized it, without the
// trailing newline the wire adds. Text with no scripted reply gets
// Default, which is empty unless set.
type TaggerScript struct {
	Replies map[string]string
	Default string
}

func (s *TaggerScript) reply(text string) string {
	if s == nil {
		return ""
	}
	if r, ok := s.Replies[text]; ok {
		return r
	}
	return s.Default
}

// SocketTagger is a fake TCP tagging server. Each connection reads one
// newline-terminated text, writes the scripted reply, and closes.
type SocketTagger struct {
	Host string
	Port int

	script   *TaggerScript
	listener net.Listener

	mu       sync.Mutex
	received []string
}

// StartSocketTagger starts a fake tagger on an ephemeral local port
// and registers its shutdown with t.Cleanup.
func StartSocketTagger(t *testing.T, script *TaggerScript) *SocketTagger {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("start socket tagger: %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	host, port := splitAddr(t, listener.Addr().String())
	tagger := &SocketTagger{
		Host:     host,
		Port:     port,
		script:   script,
		listener: listener,
	}

	go tagger.serve()
	return tagger
}

func (st *SocketTagger) serve() {
	for {
		conn, err := st.listener.Accept()
		if err != nil {
			return
		}
		go st.handle(conn)
	}
}

func (st *SocketTagger) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return
	}

	st.mu.Lock()
	st.received = append(st.received, line)
	st.mu.Unlock()

	reply := st.script.reply(strings.TrimSuffix(line, "\n"))
	_, _ = conn.Write([]byte(reply))
}

// Addr returns the tagger's host:port.
func (st *SocketTagger) Addr() string {
	return net.JoinHostPort(st.Host, strconv.Itoa(st.Port))
}

// Received returns a copy of the raw payloads read so far, trailing
// newlines included.
func (st *SocketTagger) Received() []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]string, len(st.received))
	copy(out, st.received)
	return out
}

// Close stops accepting connections before test cleanup runs.
func (st *SocketTagger) Close() {
	_ = st.listener.Close()
}

// HTTPTagger is a fake HTTP tagging server. It answers the form POST
// the HTTP transport sends and records every form received.
type HTTPTagger struct {
	URL  string
	Host string
	Port int

	script *TaggerScript
	server *httptest.Server

	mu       sync.Mutex
	requests []url.Values
}

// StartHTTPTagger starts a fake HTTP tagger and registers its shutdown
// with t.Cleanup. The handler serves every path, so transports with a
// custom path work unchanged.
func StartHTTPTagger(t *testing.T, script *TaggerScript) *HTTPTagger {
	t.Helper()

	tagger := &HTTPTagger{script: script}
	tagger.server = httptest.NewServer(http.HandlerFunc(tagger.handle))
	t.Cleanup(tagger.server.Close)

	tagger.URL = tagger.server.URL
	parsed, err := url.Parse(tagger.server.URL)
	if err != nil {
		t.Fatalf("parse http tagger url: %v", err)
	}
	tagger.Host, tagger.Port = splitAddr(t, parsed.Host)

	return tagger
}

func (ht *HTTPTagger) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ht.mu.Lock()
	ht.requests = append(ht.requests, r.PostForm)
	ht.mu.Unlock()

	input := r.PostForm.Get("input")
	_, _ = w.Write([]byte(ht.script.reply(strings.TrimSuffix(input, "\n"))))
}

// Requests returns a copy of the forms received so far.
func (ht *HTTPTagger) Requests() []url.Values {
	ht.mu.Lock()
	defer ht.mu.Unlock()

	out := make([]url.Values, len(ht.requests))
	copy(out, ht.requests)
	return out
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr %q: %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port %q: %v", portStr, err)
	}
	return host, port
}
