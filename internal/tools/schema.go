package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// generateSchema reflects an argument struct into an inline object schema and
// returns it together with its required property names.
func generateSchema[Args any]() (json.RawMessage, []string, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
	}
	data, err := json.Marshal(reflector.Reflect(new(Args)))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal schema: %w", err)
	}

	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, nil, fmt.Errorf("decode schema: %w", err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	schema["type"] = "object"
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}

	var required []string
	if raw, ok := schema["required"].([]any); ok {
		for _, name := range raw {
			if text, ok := name.(string); ok {
				required = append(required, text)
			}
		}
	}

	out, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal schema: %w", err)
	}
	return out, required, nil
}

// decodeArguments copies loosely typed call arguments onto target. JSON
// numbers and numeric strings are accepted for integer fields.
func decodeArguments(args map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build argument decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
