package format

import (
	"fmt"

	"github.com/c360/nertag/errors"
)

// Format identifies the tagged-text grammar a tagging server uses to
// encode entities in its response. The string values are wire values:
// they are sent verbatim in the outputFormat field of HTTP requests and
// accepted in configuration files.
type Format string

const (
	// SlashTags encodes one entity type per token: "New/LOCATION York/LOCATION".
	SlashTags Format = "slashTags"
	// XML encodes one token per element: `<wi num="1" entity="LOCATION">New</wi>`.
	XML Format = "xml"
	// InlineXML encodes whole entities as spans: "<LOCATION>New York</LOCATION>".
	InlineXML Format = "inlineXML"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{SlashTags, XML, InlineXML}
}

// ParseFormat converts a wire or configuration string into a Format.
// Anything other than the three supported grammar names fails with
// errors.ErrInvalidOutputFormat.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return "", errors.WrapInvalid(errors.ErrInvalidOutputFormat,
			"format", "ParseFormat", fmt.Sprintf("parse %q", s))
	}
	return f, nil
}

// Valid reports whether f is one of the supported grammars.
func (f Format) Valid() bool {
	switch f {
	case SlashTags, XML, InlineXML:
		return true
	}
	return false
}

// String returns the wire name of the format.
func (f Format) String() string {
	return string(f)
}

// Token is one (entity type, text) pair produced by parsing tagged text.
// For SlashTags and XML the text is a single token; for InlineXML it is
// a complete entity span. Tokens are transient parser output and are
// never persisted.
type Token struct {
	Type string
	Text string
}
