// Package jsonx holds the JSON interchange helpers the broker uses to move
// values between shapes: encode a Go value, look at it as untyped JSON, and
// decode the result into a Go type chosen at runtime.
package jsonx

import (
	"errors"
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a value does not encode to valid JSON.
var ErrInvalidJSON = errors.New("invalid json")

// Interchange encodes val as JSON and returns it as a parsed gjson.Result.
// Values that already are a gjson.Result or raw JSON bytes are not encoded
// again.
//
// Parameters:
//   - val: The value to encode.
//
// Returns:
//   - gjson.Result: The parsed JSON document.
//   - error: An error if val cannot be encoded.
func Interchange(val any) (gjson.Result, error) {
	switch v := val.(type) {
	case gjson.Result:
		return v, nil
	case json.RawMessage:
		return parse(v)
	}

	b, err := json.Marshal(val)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encode %T: %w", val, err)
	}
	return parse(b)
}

func parse(b []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(b) {
		return gjson.Result{}, ErrInvalidJSON
	}
	return gjson.ParseBytes(b), nil
}

// Decode unmarshals data into a new value of type typ and returns it.
// Pointer types are allocated, so decoding into *T yields a non-nil *T
// unless data is the JSON literal null.
//
// Parameters:
//   - data: The JSON document.
//   - typ: The Go type of the result.
//
// Returns:
//   - any: A value whose dynamic type is typ.
//   - error: An error if data does not decode into typ.
func Decode(data []byte, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, errors.New("decode: nil type")
	}
	ptr := reflect.New(typ)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("decode into %s: %w", typ, err)
	}
	return ptr.Elem().Interface(), nil
}

// Marshal encodes val with the same encoder Interchange uses.
func Marshal(val any) ([]byte, error) {
	return json.Marshal(val)
}

// MarshalIndent is Marshal with indentation, for human facing output.
func MarshalIndent(val any) ([]byte, error) {
	return json.MarshalIndent(val, "", "  ")
}
