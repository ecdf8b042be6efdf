package shape

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schema exports the shape as a JSON Schema document. Non-nullable object
// fields are listed as required. A shape that refers back to itself is cut
// off with an empty (accept anything) schema at the point of recursion.
func (s *Shape) Schema() *jsonschema.Schema {
	return s.schema(map[*Shape]bool{})
}

func (s *Shape) schema(seen map[*Shape]bool) *jsonschema.Schema {
	if s == nil {
		return &jsonschema.Schema{}
	}

	js := &jsonschema.Schema{}
	if s.Kind == Object || s.Bound() {
		js.Title = s.Name
	}

	switch s.Kind {
	case Bool:
		js.Type = "boolean"
	case Int, Uint:
		js.Type = "integer"
	case Float:
		js.Type = "number"
	case String:
		js.Type = "string"
	case Time:
		js.Type = "string"
		js.Format = "date-time"
	case Bytes:
		js.Type = "string"
		js.ContentEncoding = "base64"
	case Array:
		js.Type = "array"
		js.Items = s.Elem.schema(seen)
	case Map:
		js.Type = "object"
		js.AdditionalProperties = s.Elem.schema(seen)
	case Object:
		if seen[s] {
			return &jsonschema.Schema{Title: s.Name}
		}
		seen[s] = true
		defer delete(seen, s)

		js.Type = "object"
		js.Properties = orderedmap.New[string, *jsonschema.Schema]()
		for pair := s.Fields.Oldest(); pair != nil; pair = pair.Next() {
			js.Properties.Set(pair.Key, pair.Value.Type.schema(seen))
			if !pair.Value.Nullable {
				js.Required = append(js.Required, pair.Key)
			}
		}
	}
	return js
}

// FromSchema builds an unbound shape from a JSON Schema document. Properties
// missing from "required" become nullable fields; references and
// combinators are read as Any.
func FromSchema(data []byte) (*Shape, error) {
	var js jsonschema.Schema
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return FromJSONSchema(&js)
}

// FromJSONSchema is FromSchema for an already parsed document.
func FromJSONSchema(js *jsonschema.Schema) (*Shape, error) {
	if js == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrUnsupportedType)
	}
	return fromSchema(js)
}

func fromSchema(js *jsonschema.Schema) (*Shape, error) {
	if js == nil || js.Ref != "" {
		return NewScalar(Any), nil
	}

	var s *Shape
	switch js.Type {
	case "boolean":
		s = NewScalar(Bool)
	case "integer":
		s = NewScalar(Int)
	case "number":
		s = NewScalar(Float)
	case "string":
		switch {
		case js.Format == "date-time":
			s = NewScalar(Time)
		case js.ContentEncoding == "base64":
			s = NewScalar(Bytes)
		default:
			s = NewScalar(String)
		}
	case "array":
		elem, err := fromSchema(js.Items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		s = NewArray(elem)
	case "object", "":
		if js.Properties != nil && js.Properties.Len() > 0 {
			obj, err := objectFromSchema(js)
			if err != nil {
				return nil, err
			}
			s = obj
		} else if js.Type == "object" {
			elem, err := fromSchema(js.AdditionalProperties)
			if err != nil {
				return nil, fmt.Errorf("additionalProperties: %w", err)
			}
			s = NewMap(elem)
		} else {
			s = NewScalar(Any)
		}
	case "null":
		s = NewScalar(Any)
	default:
		return nil, fmt.Errorf("%w: schema type %q", ErrUnsupportedType, js.Type)
	}

	if js.Title != "" {
		s.Name = js.Title
	}
	return s, nil
}

func objectFromSchema(js *jsonschema.Schema) (*Shape, error) {
	required := make(map[string]bool, len(js.Required))
	for _, name := range js.Required {
		required[name] = true
	}

	obj := NewObject("object")
	for pair := js.Properties.Oldest(); pair != nil; pair = pair.Next() {
		ft, err := fromSchema(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", pair.Key, err)
		}
		obj.Fields.Set(pair.Key, Field{Name: pair.Key, Type: ft, Nullable: !required[pair.Key]})
	}
	return obj, nil
}
