// Package contract pins down how each classification field is represented
// in every layer of the system and converts records between layers. One
// registry is the single source of truth; components never hand-roll field
// conversions.
package contract

import (
	"fmt"
	"log/slog"
	"strings"
)

// Layer identifies one representation domain.
type Layer string

// The four representation layers.
const (
	LayerStorage      Layer = "storage"      // database rows: strings and 0/1 flags
	LayerInterchange  Layer = "interchange"  // internal structs and JSON: native types
	LayerPresentation Layer = "presentation" // user-facing strings
	LayerAnalysis     Layer = "analysis"     // numeric forms for savings math
)

var allLayers = []Layer{LayerStorage, LayerInterchange, LayerPresentation, LayerAnalysis}

// transformFunc converts one field value between two layers. Returning an
// error triggers the field's fallback instead of failing the record.
type transformFunc func(value any) (any, error)

type transformKey struct {
	field string
	from  Layer
	to    Layer
}

// Field declares one contract field: its per-layer expected dynamic type,
// whether a record may omit it, and the safe value used when a transform
// fails.
type Field struct {
	Fallbacks map[Layer]any
	Types     map[Layer]string
	Name      string
	Required  bool
}

// Violation describes one contract breach in a record.
type Violation struct {
	Field  string
	Layer  Layer
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s@%s: %s", v.Field, v.Layer, v.Reason)
}

// Contract is the loaded field registry. Immutable once built.
type Contract struct {
	fields     map[string]Field
	transforms map[transformKey]transformFunc
	order      []string
}

// newContract builds a contract and verifies its completeness: every field
// must declare a type for all four layers, and every declared transform must
// reference a known field and layers.
func newContract(fields []Field, transforms map[transformKey]transformFunc) (*Contract, error) {
	c := &Contract{
		fields:     make(map[string]Field, len(fields)),
		transforms: transforms,
		order:      make([]string, 0, len(fields)),
	}

	for _, field := range fields {
		if field.Name == "" {
			return nil, fmt.Errorf("contract field with empty name")
		}
		if _, dup := c.fields[field.Name]; dup {
			return nil, fmt.Errorf("duplicate contract field %q", field.Name)
		}
		for _, layer := range allLayers {
			if _, ok := field.Types[layer]; !ok {
				return nil, fmt.Errorf("field %q missing type for layer %s", field.Name, layer)
			}
		}
		c.fields[field.Name] = field
		c.order = append(c.order, field.Name)
	}

	for key := range transforms {
		if _, ok := c.fields[key.field]; !ok {
			return nil, fmt.Errorf("transform for unknown field %q", key.field)
		}
		if !validLayer(key.from) || !validLayer(key.to) {
			return nil, fmt.Errorf("transform for field %q has invalid layers %s->%s", key.field, key.from, key.to)
		}
	}

	return c, nil
}

func validLayer(layer Layer) bool {
	for _, l := range allLayers {
		if l == layer {
			return true
		}
	}
	return false
}

// Fields lists the contract's field names in declaration order.
func (c *Contract) Fields() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// TransformField converts a single field value between layers. A failing
// transform logs a warning and substitutes the field's fallback for the
// target layer. An undeclared direction is an error.
func (c *Contract) TransformField(field string, from, to Layer, value any) (any, error) {
	def, ok := c.fields[field]
	if !ok {
		return nil, fmt.Errorf("unknown contract field %q", field)
	}
	if from == to {
		return value, nil
	}

	fn, ok := c.transforms[transformKey{field: field, from: from, to: to}]
	if !ok {
		return nil, fmt.Errorf("no transform for field %q from %s to %s", field, from, to)
	}

	out, err := fn(value)
	if err != nil {
		fallback, hasFallback := def.Fallbacks[to]
		if !hasFallback {
			return nil, fmt.Errorf("transform failed for field %q (%s->%s) and no fallback: %w", field, from, to, err)
		}
		slog.Warn("Field transform failed, using fallback",
			"field", field,
			"from", string(from),
			"to", string(to),
			"error", err)
		return fallback, nil
	}
	return out, nil
}

// Transform converts a whole record between layers. Missing or failing
// required fields abort with an error; optional fields are logged and
// omitted from the output.
func (c *Contract) Transform(record map[string]any, from, to Layer) (map[string]any, error) {
	if record == nil {
		return nil, fmt.Errorf("nil record")
	}

	out := make(map[string]any, len(record))
	for _, name := range c.order {
		def := c.fields[name]
		value, present := record[name]
		if !present {
			if def.Required {
				return nil, fmt.Errorf("required field %q missing from record", name)
			}
			continue
		}

		converted, err := c.TransformField(name, from, to, value)
		if err != nil {
			if def.Required {
				return nil, fmt.Errorf("required field %q: %w", name, err)
			}
			slog.Warn("Dropping optional field",
				"field", name,
				"error", err)
			continue
		}
		out[name] = converted
	}
	return out, nil
}

// BatchItemError ties a record-level failure to its position and, when
// available, its description field.
type BatchItemError struct {
	Err         error
	Description string
	Index       int
}

func (e *BatchItemError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("record %d (%q): %v", e.Index, e.Description, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *BatchItemError) Unwrap() error { return e.Err }

// TransformBatch converts a slice of records, collecting per-item failures
// instead of aborting the batch.
func (c *Contract) TransformBatch(records []map[string]any, from, to Layer) ([]map[string]any, []*BatchItemError) {
	out := make([]map[string]any, 0, len(records))
	var failures []*BatchItemError

	for i, record := range records {
		converted, err := c.Transform(record, from, to)
		if err != nil {
			description, _ := record["description"].(string)
			failures = append(failures, &BatchItemError{
				Err:         err,
				Description: description,
				Index:       i,
			})
			continue
		}
		out = append(out, converted)
	}
	return out, failures
}

// Validate checks a record against one layer's expectations and returns
// every violation found. An empty slice means the record conforms.
func (c *Contract) Validate(record map[string]any, layer Layer) []Violation {
	var violations []Violation

	for _, name := range c.order {
		def := c.fields[name]
		value, present := record[name]
		if !present {
			if def.Required {
				violations = append(violations, Violation{
					Field:  name,
					Layer:  layer,
					Reason: "required field missing",
				})
			}
			continue
		}

		want := def.Types[layer]
		if got := dynamicType(value); got != want {
			violations = append(violations, Violation{
				Field:  name,
				Layer:  layer,
				Reason: fmt.Sprintf("expected %s, got %s", want, got),
			})
		}
	}

	for name := range record {
		if _, ok := c.fields[name]; !ok {
			violations = append(violations, Violation{
				Field:  name,
				Layer:  layer,
				Reason: "field not in contract",
			})
		}
	}

	return violations
}

func dynamicType(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case int:
		return "int"
	case int64:
		return "int"
	case float64:
		return "float"
	case nil:
		return "nil"
	default:
		return strings.TrimPrefix(fmt.Sprintf("%T", value), "*")
	}
}
