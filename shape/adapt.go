package shape

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrIncompatible is matched by every adaptation failure.
var ErrIncompatible = errors.New("incompatible shapes")

// IncompatibleError reports a value that cannot be adapted from one shape to
// another.
type IncompatibleError struct {
	// Path locates the offending value, e.g. "$.Items[2].Name".
	Path   string
	From   *Shape
	To     *Shape
	Reason string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("%s: cannot adapt %s to %s: %s", e.Path, e.From, e.To, e.Reason)
}

func (e *IncompatibleError) Is(target error) bool {
	return target == ErrIncompatible
}

// Convert adapts the JSON value v, declared as from, to the shape to.
//
// Object fields are matched by name: fields known to both shapes are
// converted recursively, fields only in from are dropped and fields only in to
// (or null in v) get their canonical default. A nil from, or Any, means the
// structure is taken from the value itself.
func Convert(v gjson.Result, from, to *Shape) (gjson.Result, error) {
	raw, err := convert("$", v, from, to)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(raw), nil
}

// Adapt converts record r, declared as from, into a new record of shape to.
func Adapt(r *Record, from, to *Shape) (*Record, error) {
	if to == nil || (to.Kind != Object && to.Kind != Map) {
		return nil, &IncompatibleError{Path: "$", From: from, To: to, Reason: "target is not a record"}
	}
	raw, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	res, err := Convert(gjson.ParseBytes(raw), from, to)
	if err != nil {
		return nil, err
	}
	return RecordFrom(res)
}

func convert(path string, v gjson.Result, from, to *Shape) (string, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return "null", nil
	}
	if to == nil || to.Kind == Any {
		return v.Raw, nil
	}
	if from == nil || from.Kind == Any {
		from = infer(v, to)
	}

	switch to.Kind {
	case Object:
		return convertObject(path, v, from, to)
	case Map:
		return convertMap(path, v, from, to)
	case Array:
		return convertArray(path, v, from, to)
	default:
		return convertScalar(path, v, from, to)
	}
}

func convertObject(path string, v gjson.Result, from, to *Shape) (string, error) {
	if from.Kind != Object && from.Kind != Map {
		return "", &IncompatibleError{Path: path, From: from, To: to, Reason: "not a record"}
	}
	if !v.IsObject() {
		return "", &IncompatibleError{Path: path, From: from, To: to, Reason: "value is " + describeValue(v)}
	}

	values := make(map[string]gjson.Result)
	v.ForEach(func(key, value gjson.Result) bool {
		values[key.String()] = value
		return true
	})

	out := []byte("{}")
	for pair := to.Fields.Oldest(); pair != nil; pair = pair.Next() {
		name, target := pair.Key, pair.Value

		source, declared := sourceField(from, name)
		value, present := values[name]

		raw, err := target.Default()
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", path, name, err)
		}
		if declared && present && value.Type != gjson.Null {
			raw, err = convert(path+"."+name, source.unquote(value), source.Type, target.Type)
			if err != nil {
				return "", err
			}
			raw = target.quote(raw)
		}

		out, err = sjson.SetRawBytes(out, escapePath(name), []byte(raw))
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", path, name, err)
		}
	}
	return string(out), nil
}

// sourceField returns member name as from declares it. Maps declare every
// key with their element shape.
func sourceField(from *Shape, name string) (Field, bool) {
	if from.Kind == Map {
		return Field{Name: name, Type: from.Elem}, true
	}
	return from.Field(name)
}

// unquote reads the JSON literal inside a quoted field's string.
func (f Field) unquote(v gjson.Result) gjson.Result {
	if !f.Quoted || v.Type != gjson.String || !gjson.Valid(v.Str) {
		return v
	}
	return gjson.Parse(v.Str)
}

func convertMap(path string, v gjson.Result, from, to *Shape) (string, error) {
	if from.Kind != Map && from.Kind != Object {
		return "", &IncompatibleError{Path: path, From: from, To: to, Reason: "not a map"}
	}
	if !v.IsObject() {
		return "", &IncompatibleError{Path: path, From: from, To: to, Reason: "value is " + describeValue(v)}
	}

	out := []byte("{}")
	var err error
	v.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		source, _ := sourceField(from, name)
		var raw string
		raw, err = convert(path+"."+name, source.unquote(value), source.Type, to.Elem)
		if err != nil {
			return false
		}
		out, err = sjson.SetRawBytes(out, escapePath(name), []byte(raw))
		return err == nil
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func convertArray(path string, v gjson.Result, from, to *Shape) (string, error) {
	if from.Kind != Array {
		return "", &IncompatibleError{Path: path, From: from, To: to, Reason: "not an array"}
	}
	if !v.IsArray() {
		return "", &IncompatibleError{Path: path, From: from, To: to, Reason: "value is " + describeValue(v)}
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i, elem := range v.Array() {
		raw, err := convert(path+"["+strconv.Itoa(i)+"]", elem, from.Elem, to.Elem)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(raw)
	}
	sb.WriteByte(']')
	return sb.String(), nil
}

func convertScalar(path string, v gjson.Result, from, to *Shape) (string, error) {
	if !convertible(from.Kind, to.Kind) {
		return "", &IncompatibleError{Path: path, From: from, To: to, Reason: from.Kind.String() + " is not assignable to " + to.Kind.String()}
	}

	mismatch := func(reason string) (string, error) {
		return "", &IncompatibleError{Path: path, From: from, To: to, Reason: reason}
	}

	switch to.Kind {
	case Bool:
		if v.Type != gjson.True && v.Type != gjson.False {
			return mismatch("value is " + describeValue(v))
		}
	case Int:
		if !isInteger(v) {
			return mismatch("value " + v.Raw + " is not an integer")
		}
	case Uint:
		if !isInteger(v) {
			return mismatch("value " + v.Raw + " is not an integer")
		}
		if strings.HasPrefix(v.Raw, "-") {
			return mismatch("value " + v.Raw + " is negative")
		}
	case Float:
		if v.Type != gjson.Number {
			return mismatch("value is " + describeValue(v))
		}
	case String, Bytes:
		if v.Type != gjson.String {
			return mismatch("value is " + describeValue(v))
		}
	case Time:
		if v.Type != gjson.String {
			return mismatch("value is " + describeValue(v))
		}
		if _, err := time.Parse(time.RFC3339Nano, v.Str); err != nil {
			return mismatch("value " + v.Raw + " is not an RFC 3339 timestamp")
		}
	}
	return v.Raw, nil
}

// infer derives a shape from the value itself. Strings are read as the
// string-carried kind the target expects.
func infer(v gjson.Result, to *Shape) *Shape {
	switch v.Type {
	case gjson.True, gjson.False:
		return NewScalar(Bool)
	case gjson.Number:
		if isInteger(v) {
			if strings.HasPrefix(v.Raw, "-") {
				return NewScalar(Int)
			}
			return NewScalar(Uint)
		}
		return NewScalar(Float)
	case gjson.String:
		if to != nil && (to.Kind == Time || to.Kind == Bytes) {
			return NewScalar(to.Kind)
		}
		return NewScalar(String)
	case gjson.JSON:
		if v.IsArray() {
			return NewArray(NewScalar(Any))
		}
		return NewMap(NewScalar(Any))
	default:
		return NewScalar(Any)
	}
}

func isInteger(v gjson.Result) bool {
	return v.Type == gjson.Number && !strings.ContainsAny(v.Raw, ".eE")
}

func describeValue(v gjson.Result) string {
	switch {
	case v.IsArray():
		return "an array"
	case v.IsObject():
		return "an object"
	case v.Type == gjson.True, v.Type == gjson.False:
		return "a boolean"
	case v.Type == gjson.Number:
		return "a number"
	case v.Type == gjson.String:
		return "a string"
	default:
		return "null"
	}
}
