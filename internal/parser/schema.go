package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema guards the shape of parsed_data documents before they reach
// storage; a result that fails it indicates a pipeline bug, not bad input.
const resultSchema = `{
  "type": "object",
  "required": ["amount", "date", "merchant", "payment_method", "category", "overall_confidence", "original_text", "normalized_text"],
  "properties": {
    "amount": {"$ref": "#/$defs/field"},
    "date": {"$ref": "#/$defs/field"},
    "merchant": {"$ref": "#/$defs/field"},
    "payment_method": {"$ref": "#/$defs/field"},
    "category": {"type": "string", "minLength": 1},
    "all_merchants": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "category", "confidence"],
        "properties": {
          "name": {"type": "string"},
          "category": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "overall_confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "original_text": {"type": "string"},
    "normalized_text": {"type": "string"},
    "message": {"type": "string"},
    "warnings": {"type": "array", "items": {"type": "string"}}
  },
  "$defs": {
    "field": {
      "type": "object",
      "required": ["value", "confidence"],
      "properties": {
        "confidence": {"type": "number", "minimum": 0, "maximum": 1},
        "source": {"type": "string"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("result.json", strings.NewReader(resultSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("result.json")
	})
	return compiledSchema, schemaErr
}

// ValidateResultJSON validates a serialized Result against the persisted
// document schema.
func ValidateResultJSON(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
