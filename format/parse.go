package format

import (
	"regexp"
	"strings"
)

// Grammar patterns for the three tagging conventions. Dot does not
// match newline, so tokens and spans never cross line boundaries.
var (
	slashTagsPattern = regexp.MustCompile(`(.+?)/([A-Z]+)\s*`)
	xmlPattern       = regexp.MustCompile(`<wi num=".+?" entity="(.+?)">(.+?)</wi>`)
	inlineTagPattern = regexp.MustCompile(`<([A-Z]+)>`)
)

// Parse extracts the Token sequence from raw tagged text using the
// grammar selected by f. Parsing is lenient: text that does not match
// the grammar is skipped silently, and a response with no matches
// yields an empty sequence, never an error. An unsupported Format
// yields nil; callers validate the Format at construction time.
func Parse(f Format, tagged string) []Token {
	switch f {
	case SlashTags:
		return parseSlashTags(tagged)
	case XML:
		return parseXML(tagged)
	case InlineXML:
		return parseInlineXML(tagged)
	default:
		return nil
	}
}

// parseSlashTags scans token/TYPE units. The capture order in the text
// is (token, TYPE); tokens are emitted with the type first.
func parseSlashTags(tagged string) []Token {
	matches := slashTagsPattern.FindAllStringSubmatch(tagged, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, Token{Type: m[2], Text: m[1]})
	}
	return tokens
}

// parseXML scans <wi num="N" entity="TYPE">token</wi> elements in
// document order. The num attribute is positional metadata and is
// dropped.
func parseXML(tagged string) []Token {
	matches := xmlPattern.FindAllStringSubmatch(tagged, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, Token{Type: m[1], Text: m[2]})
	}
	return tokens
}

// parseInlineXML scans <TYPE>entity text</TYPE> spans. The close tag
// must repeat the open tag's name, which regexp cannot express, so the
// close tag is located by literal search: the span content is the
// shortest non-empty run from the open tag to the first matching close
// tag on the same line. An open tag with no such close is skipped, and
// scanning resumes at the next open tag.
func parseInlineXML(tagged string) []Token {
	var tokens []Token
	pos := 0
	for pos < len(tagged) {
		loc := inlineTagPattern.FindStringSubmatchIndex(tagged[pos:])
		if loc == nil {
			break
		}
		openEnd := pos + loc[1]
		entityType := tagged[pos+loc[2] : pos+loc[3]]
		closeTag := "</" + entityType + ">"

		rest := tagged[openEnd:]
		closeIdx := -1
		if len(rest) > 1 {
			// Skip one character so the span content is non-empty.
			closeIdx = strings.Index(rest[1:], closeTag)
		}
		if closeIdx < 0 {
			pos = openEnd
			continue
		}

		content := rest[:1+closeIdx]
		if strings.ContainsRune(content, '\n') {
			pos = openEnd
			continue
		}

		tokens = append(tokens, Token{Type: entityType, Text: content})
		pos = openEnd + 1 + closeIdx + len(closeTag)
	}
	return tokens
}
