package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/nertag/errors"
)

// configSchema is the JSON schema every config document is checked
// against before decoding. Catching a misspelled key or a string where
// an integer belongs here produces an error naming the field path
// instead of a silently ignored setting.
//
//go:embed schema.json
var configSchema []byte

// validateRawConfig validates a raw config document against the
// embedded schema. Violations are reported with their field path.
func validateRawConfig(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.WrapInvalid(err, "Loader", "Load", "validate config schema")
	}

	if !result.Valid() {
		var sb strings.Builder
		for i, desc := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			fmt.Fprintf(&sb, "%s: %s", desc.Field(), desc.Description())
		}
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, sb.String()),
			"Loader", "Load", "validate config schema")
	}

	return nil
}
