// Package testutil provides in-process fakes for testing the tagging
// client and the annotation service without external infrastructure.
//
// # Overview
//
// A remote tagging server is slow to stand up and awkward to script,
// so the package fakes both wire protocols the client speaks:
//
// StartSocketTagger - TCP tagger on an ephemeral port:
//   - Reads one newline-terminated text per connection
//   - Replies from a TaggerScript, then closes the connection
//   - Records every payload received for later assertions
//
// StartHTTPTagger - HTTP tagger backed by httptest:
//   - Accepts the form POST the HTTP transport sends
//   - Replies from a TaggerScript based on the input field
//   - Records every form received for later assertions
//
// MockNATSClient - In-memory message bus for service tests:
//   - Matches the natsclient surface the service depends on
//   - Stores all published messages for verification
//   - Delivers to plain and queue subscriptions
//   - No external NATS server required
//
// Both taggers register shutdown with t.Cleanup, and every fake is
// safe for concurrent use.
//
// # Scripting Replies
//
// A TaggerScript maps submitted text to the tagged reply the fake
// returns. Keys are the text as the client normalized it, without the
// trailing newline the wire adds:
//
//	script := &testutil.TaggerScript{
//		Replies: map[string]string{
//			"John Smith lives in Paris": "<PERSON>John Smith</PERSON> lives in <LOCATION>Paris</LOCATION>",
//		},
//	}
//	tagger := testutil.StartSocketTagger(t, script)
//
//	c, err := client.NewSocket(tagger.Host, tagger.Port)
//
// Unscripted text gets the Default reply, which is empty unless set.
//
// # Wait Helpers
//
// WaitForMessage and WaitForMessageCount poll a MockNATSClient until
// a subject holds the expected messages, failing the test on timeout.
// The 10ms poll interval adds latency, so prefer direct assertions
// when the delivery is synchronous.
package testutil
