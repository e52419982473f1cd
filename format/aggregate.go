package format

import (
	"sort"
	"strings"
)

// EntityMap is the final result of entity extraction: entity type to
// the entity strings recognized for that type, in the order they first
// appear in the tagged text. Keys are whatever labels the server emits
// ("PERSON", "LOCATION", "O", ...); the client never restricts the
// label vocabulary.
type EntityMap map[string][]string

// Types returns the entity type labels in sorted order for
// deterministic iteration.
func (m EntityMap) Types() []string {
	types := make([]string, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count returns the total number of entities across all types.
func (m EntityMap) Count() int {
	n := 0
	for _, entities := range m {
		n += len(entities)
	}
	return n
}

// JoinRuns merges consecutive tokens that share an entity type into a
// single token whose text is the run's texts joined by one space. This
// reconstructs multi-token entities from the per-token SlashTags and
// XML grammars: "New/LOCATION York/LOCATION" becomes one "New York"
// entity. Grouping is strictly run-length over the original sequence
// order; two LOCATION runs separated by another type stay separate.
func JoinRuns(tokens []Token) []Token {
	if len(tokens) == 0 {
		return nil
	}
	joined := make([]Token, 0, len(tokens))
	runType := tokens[0].Type
	runTexts := []string{tokens[0].Text}
	for _, tok := range tokens[1:] {
		if tok.Type == runType {
			runTexts = append(runTexts, tok.Text)
			continue
		}
		joined = append(joined, Token{Type: runType, Text: strings.Join(runTexts, " ")})
		runType = tok.Type
		runTexts = []string{tok.Text}
	}
	return append(joined, Token{Type: runType, Text: strings.Join(runTexts, " ")})
}

// Collapse groups tokens into an EntityMap. Each type's bucket keeps
// its values in upstream order, so entity order within a type always
// reflects first-seen order in the source text.
func Collapse(tokens []Token) EntityMap {
	if len(tokens) == 0 {
		return EntityMap{}
	}
	entities := make(EntityMap)
	for _, tok := range tokens {
		entities[tok.Type] = append(entities[tok.Type], tok.Text)
	}
	return entities
}

// Extract runs the full parse-and-aggregate pipeline for one response:
// Parse, then JoinRuns for the per-token grammars, then Collapse. For
// InlineXML each parsed span is already a complete entity, so no run
// joining is applied; text outside spans is dropped entirely rather
// than collected under an "O" key.
func Extract(f Format, tagged string) EntityMap {
	tokens := Parse(f, tagged)
	if f == SlashTags || f == XML {
		tokens = JoinRuns(tokens)
	}
	return Collapse(tokens)
}
