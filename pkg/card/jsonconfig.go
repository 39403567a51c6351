package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/card-config-v1.json
var cardConfigSchemaJSON string

// cardConfigSchema is compiled once; the schema is embedded and cannot fail
// to compile in a correct build.
var cardConfigSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("card-config-v1.json",
		strings.NewReader(cardConfigSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add card config schema: %v", err))
	}
	schema, err := compiler.Compile("card-config-v1.json")
	if err != nil {
		panic(fmt.Sprintf("compile card config schema: %v", err))
	}
	return schema
}

// ParseJSONConfig parses a card configuration from its JSON form, used by
// firmware tooling that exports configs as JSON. The document is validated
// against the embedded schema before decoding, so structural errors carry
// JSON-pointer context instead of surfacing mid-generation.
func ParseJSONConfig(data []byte) (*Config, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := cardConfigSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("card config schema validation: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode card config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
