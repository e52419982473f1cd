// Package format parses tagged-text responses from NER tagging servers
// and aggregates them into entity maps.
//
// # Overview
//
// A tagging server answers a line of raw text with the same text
// re-encoded in one of three tagged-text grammars. This package turns
// that response into an EntityMap: entity type label to the entity
// strings recognized for that type. It is the pure core of the client:
// no I/O, no logging, and identical input always produces identical
// output.
//
// # Supported Grammars
//
// **SlashTags** - one type per token, type follows a slash:
//
//	New/LOCATION York/LOCATION is/O big/O
//
// **XML** - one token per <wi> element:
//
//	<wi num="1" entity="PERSON">John</wi> <wi num="2" entity="PERSON">Smith</wi>
//
// **InlineXML** - whole entities as spans, untagged text in between:
//
//	<PERSON>John Smith</PERSON> lives in <LOCATION>Paris</LOCATION>
//
// The Format values ("slashTags", "xml", "inlineXML") are wire values
// shared with the server; ParseFormat validates configuration input and
// fails with errors.ErrInvalidOutputFormat for anything else.
//
// # Aggregation
//
// SlashTags and XML tag individual tokens, so consecutive tokens of the
// same type are first joined into multi-token entities (JoinRuns), then
// grouped by type (Collapse). InlineXML spans are complete entities
// already and skip the joining step. Extract composes the full
// pipeline:
//
//	entities := format.Extract(format.SlashTags, "New/LOCATION York/LOCATION is/O big/O")
//	// EntityMap{"LOCATION": {"New York"}, "O": {"is big"}}
//
//	entities = format.Extract(format.InlineXML, "<PERSON>John Smith</PERSON> lives in <LOCATION>Paris</LOCATION>")
//	// EntityMap{"PERSON": {"John Smith"}, "LOCATION": {"Paris"}}
//
// Note the asymmetry: SlashTags and XML keep outside-entity tokens
// under the server's "O" label, while InlineXML drops untagged text
// entirely.
//
// # Lenient Parsing
//
// Parsing NEVER fails. Text that does not match the selected grammar is
// skipped silently, and a response with no matches yields an empty
// EntityMap. This matches the wire behavior existing callers depend on,
// but it cuts both ways: a server-side error page returned in place of
// tagged text parses to zero entities instead of signaling failure.
// Callers that need to distinguish "no entities" from "no response"
// should inspect the raw tagged text from Client.Tag.
//
// # Ordering
//
// Within a type, entity order is first-seen order in the source text,
// for every grammar. EntityMap is a plain map, so iteration over types
// follows Go map semantics; use Types for a sorted view:
//
//	for _, t := range entities.Types() {
//	    fmt.Println(t, entities[t])
//	}
package format
