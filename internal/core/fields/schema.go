package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// BuildResponseJSONSchema describes the reply: an object whose canonical keys,
// when present, hold a string or a number. Other keys are allowed and dropped later.
func BuildResponseJSONSchema() map[string]any {
	props := make(map[string]any, len(constants.Fields()))
	for _, f := range constants.Fields() {
		props[string(f)] = map[string]any{"type": []string{"string", "number"}}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
	}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func responseSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(BuildResponseJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("response.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("response.json")
	})
	return schema, schemaErr
}

// parseResponse makes the single strict parse attempt. Numbers stay json.Number.
func parseResponse(resp string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(resp)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse json: trailing data after object")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	s, err := responseSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(obj); err != nil {
		return nil, fmt.Errorf("json does not match schema: %w", err)
	}
	return obj, nil
}
