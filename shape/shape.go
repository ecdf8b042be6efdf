package shape

import (
	"reflect"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Field is a named member of an object shape.
type Field struct {
	// Name is the interchange name of the field.
	Name string
	Type *Shape
	// Nullable fields default to null instead of their type's zero value.
	Nullable bool
	// Quoted bool and number fields travel as JSON strings, the way the
	// ",string" json tag option encodes them.
	Quoted bool
}

// Shape is a runtime type token: it describes the structure of a value well
// enough to match it field by field against another shape.
//
// Shapes built with Of or FromType are bound to a Go type; shapes built with
// FromSchema or by hand are not.
type Shape struct {
	Kind Kind
	Name string
	// Fields holds the members of an Object shape in declaration order.
	Fields *orderedmap.OrderedMap[string, Field]
	// Elem is the element shape of an Array or Map.
	Elem *Shape

	goType reflect.Type
}

// NewObject returns an unbound object shape with the given fields.
func NewObject(name string, fields ...Field) *Shape {
	s := &Shape{
		Kind:   Object,
		Name:   name,
		Fields: orderedmap.New[string, Field](),
	}
	for _, f := range fields {
		s.Fields.Set(f.Name, f)
	}
	return s
}

// NewScalar returns an unbound shape of a scalar kind, or Any.
func NewScalar(kind Kind) *Shape {
	return &Shape{Kind: kind, Name: kind.String()}
}

// NewArray returns an unbound array shape.
func NewArray(elem *Shape) *Shape {
	return &Shape{Kind: Array, Name: "[]" + elem.String(), Elem: elem}
}

// NewMap returns an unbound map shape with string keys.
func NewMap(elem *Shape) *Shape {
	return &Shape{Kind: Map, Name: "map[string]" + elem.String(), Elem: elem}
}

// GoType returns the Go type the shape is bound to, or nil.
func (s *Shape) GoType() reflect.Type {
	if s == nil {
		return nil
	}
	return s.goType
}

// Bound reports whether the shape was derived from a Go type.
func (s *Shape) Bound() bool {
	return s != nil && s.goType != nil
}

// Identical reports whether values of s can be handed out as values of other
// without adaptation: both are bound to the same Go type, or they are the same
// shape.
func (s *Shape) Identical(other *Shape) bool {
	if s == nil || other == nil {
		return false
	}
	if s == other {
		return true
	}
	return s.goType != nil && s.goType == other.goType
}

// Field returns the named field of an object shape.
func (s *Shape) Field(name string) (Field, bool) {
	if s == nil || s.Fields == nil {
		return Field{}, false
	}
	return s.Fields.Get(name)
}

// FieldNames returns the field names of an object shape in declaration order.
func (s *Shape) FieldNames() []string {
	if s == nil || s.Fields == nil {
		return nil
	}
	names := make([]string, 0, s.Fields.Len())
	for pair := s.Fields.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

func (s *Shape) String() string {
	if s == nil {
		return "<nil>"
	}
	if s.Name != "" {
		return s.Name
	}
	return s.Kind.String()
}

// Describe renders the structure of the shape, e.g.
// "object{MyInt int, Data string}". Nested objects are expanded once; a shape
// that refers back to itself is printed by name.
func (s *Shape) Describe() string {
	var sb strings.Builder
	s.describe(&sb, map[*Shape]bool{})
	return sb.String()
}

func (s *Shape) describe(sb *strings.Builder, seen map[*Shape]bool) {
	if s == nil {
		sb.WriteString("<nil>")
		return
	}
	switch s.Kind {
	case Object:
		if seen[s] {
			sb.WriteString(s.String())
			return
		}
		seen[s] = true
		defer delete(seen, s)

		sb.WriteString("object{")
		i := 0
		for pair := s.Fields.Oldest(); pair != nil; pair = pair.Next() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(pair.Key)
			sb.WriteByte(' ')
			if pair.Value.Nullable {
				sb.WriteByte('?')
			}
			pair.Value.Type.describe(sb, seen)
			i++
		}
		sb.WriteByte('}')
	case Array:
		sb.WriteString("[]")
		s.Elem.describe(sb, seen)
	case Map:
		sb.WriteString("map[string]")
		s.Elem.describe(sb, seen)
	default:
		sb.WriteString(s.Kind.String())
	}
}
