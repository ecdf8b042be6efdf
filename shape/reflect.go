package shape

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/casualjim/parley/pkg/reflectx"
	"github.com/casualjim/parley/pkg/stdx"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrUnsupportedType is returned for Go types that have no interchange form:
// channels, functions, complex numbers and unsafe pointers.
var ErrUnsupportedType = errors.New("unsupported type")

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// Of returns the shape of T.
func Of[T any]() (*Shape, error) {
	return FromType(reflect.TypeFor[T]())
}

// MustOf is Of for types known to be supported; it panics otherwise.
func MustOf[T any]() *Shape {
	return stdx.Must1(Of[T]())
}

// FromType returns the shape of t, bound to t.
//
// Pointers are transparent: *T has the structure of T but stays bound to *T.
// Struct fields use their json tag names; untagged embedded structs are
// flattened into the outer object the way encoding/json does it.
func FromType(t reflect.Type) (*Shape, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnsupportedType)
	}
	b := &typeWalker{seen: make(map[reflect.Type]*Shape)}
	return b.walk(t)
}

type typeWalker struct {
	seen map[reflect.Type]*Shape
}

func (w *typeWalker) walk(t reflect.Type) (*Shape, error) {
	if s, ok := w.seen[t]; ok {
		return s, nil
	}

	bound := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	s := &Shape{Name: bound.String(), goType: bound}

	switch {
	case reflectx.IsRefinedType[time.Time](t), reflectx.IsRefinedType[strfmt.DateTime](t):
		s.Kind = Time
		return s, nil
	case t.Implements(jsonMarshalerType), reflect.PointerTo(t).Implements(jsonMarshalerType):
		// opaque: the type decides its own encoding
		s.Kind = Any
		return s, nil
	case t.Implements(textMarshalerType), reflect.PointerTo(t).Implements(textMarshalerType):
		// MarshalText output travels as a JSON string
		s.Kind = String
		return s, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		s.Kind = Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s.Kind = Int
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		s.Kind = Uint
	case reflect.Float32, reflect.Float64:
		s.Kind = Float
	case reflect.String:
		s.Kind = String
	case reflect.Interface:
		s.Kind = Any
	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 && !t.Elem().Implements(jsonMarshalerType) && !t.Elem().Implements(textMarshalerType) {
			s.Kind = Bytes
			return s, nil
		}
		s.Kind = Array
		w.seen[bound] = s
		elem, err := w.walk(t.Elem())
		if err != nil {
			return nil, err
		}
		s.Elem = elem
	case reflect.Map:
		if !mapKeySupported(t.Key()) {
			return nil, fmt.Errorf("%w: map key %s of %s", ErrUnsupportedType, t.Key(), bound)
		}
		s.Kind = Map
		w.seen[bound] = s
		elem, err := w.walk(t.Elem())
		if err != nil {
			return nil, err
		}
		s.Elem = elem
	case reflect.Struct:
		s.Kind = Object
		s.Fields = orderedmap.New[string, Field]()
		w.seen[bound] = s
		if err := w.fields(s, t); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, bound)
	}
	return s, nil
}

func mapKeySupported(k reflect.Type) bool {
	switch k.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return k.Implements(textMarshalerType)
}

// fields adds the members of struct type t to the object shape s. Direct
// fields shadow fields promoted from embedded structs.
func (w *typeWalker) fields(s *Shape, t reflect.Type) error {
	direct := make(map[string]bool)
	for i := range t.NumField() {
		sf := t.Field(i)
		if name, ok := fieldName(sf); ok && !isPromoted(sf) {
			direct[name] = true
		}
	}

	for i := range t.NumField() {
		sf := t.Field(i)
		if isPromoted(sf) {
			inner, err := w.walk(sf.Type)
			if err != nil {
				return fmt.Errorf("embedded %s: %w", sf.Name, err)
			}
			for pair := inner.Fields.Oldest(); pair != nil; pair = pair.Next() {
				if direct[pair.Key] {
					continue
				}
				if _, dup := s.Fields.Get(pair.Key); dup {
					continue
				}
				f := pair.Value
				f.Nullable = f.Nullable || sf.Type.Kind() == reflect.Pointer
				s.Fields.Set(pair.Key, f)
			}
			continue
		}

		name, ok := fieldName(sf)
		if !ok {
			continue
		}
		ft, err := w.walk(sf.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
		s.Fields.Set(name, Field{
			Name:     name,
			Type:     ft,
			Nullable: nullable(sf.Type),
			Quoted:   hasTagOption(sf, "string") && quotable(ft.Kind),
		})
	}
	return nil
}

// isPromoted reports whether the fields of sf are promoted into the outer
// object: an untagged embedded struct or pointer to struct.
func isPromoted(sf reflect.StructField) bool {
	if !sf.Anonymous || sf.Tag.Get("json") != "" {
		return false
	}
	t := sf.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && !reflectx.IsRefinedType[time.Time](t) && !t.Implements(jsonMarshalerType)
}

// fieldName returns the interchange name of sf, and false for fields that
// never make it into the interchange form.
func fieldName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	if !sf.IsExported() {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	return name, true
}

func hasTagOption(sf reflect.StructField, option string) bool {
	_, opts, _ := strings.Cut(sf.Tag.Get("json"), ",")
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == option {
			return true
		}
	}
	return false
}

func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	default:
		return false
	}
}
