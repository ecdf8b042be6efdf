package shape

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is a generic structural record: an ordered set of field names, each
// holding a JSON value. It is what adaptation produces when the requested
// shape is not bound to a Go type.
type Record struct {
	fields *orderedmap.OrderedMap[string, gjson.Result]
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, gjson.Result]()}
}

// RecordFrom builds a record from a JSON object, keeping the key order of the
// document.
func RecordFrom(v gjson.Result) (*Record, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("record from %s: not an object", v.Type)
	}
	r := NewRecord()
	v.ForEach(func(key, value gjson.Result) bool {
		r.fields.Set(key.String(), value)
		return true
	})
	return r, nil
}

// ParseRecord parses raw JSON into a record.
func ParseRecord(raw []byte) (*Record, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("parse record: invalid json")
	}
	return RecordFrom(gjson.ParseBytes(raw))
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (gjson.Result, bool) {
	return r.fields.Get(name)
}

// Has reports whether the record has the named field, even when it is null.
func (r *Record) Has(name string) bool {
	_, ok := r.fields.Get(name)
	return ok
}

// Set stores a JSON value under name, appending new names at the end.
func (r *Record) Set(name string, value gjson.Result) {
	r.fields.Set(name, value)
}

// SetRaw parses raw JSON and stores it under name.
func (r *Record) SetRaw(name, raw string) {
	r.fields.Set(name, gjson.Parse(raw))
}

// Delete removes the named field.
func (r *Record) Delete(name string) {
	r.fields.Delete(name)
}

func (r *Record) Len() int {
	return r.fields.Len()
}

// Names returns the field names in order.
func (r *Record) Names() []string {
	names := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Clone returns a copy of the record. Values are immutable so the copy is
// independent of r.
func (r *Record) Clone() *Record {
	c := NewRecord()
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		c.fields.Set(pair.Key, pair.Value)
	}
	return c
}

// Map returns the record as a plain map of decoded JSON values.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = pair.Value.Value()
	}
	return m
}

func (r *Record) String() string {
	b, _ := r.MarshalJSON()
	return string(b)
}

func (r *Record) MarshalJSON() ([]byte, error) {
	raw := []byte("{}")
	var err error
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		val := pair.Value.Raw
		if val == "" {
			val = "null"
		}
		raw, err = sjson.SetRawBytes(raw, escapePath(pair.Key), []byte(val))
		if err != nil {
			return nil, fmt.Errorf("record field %q: %w", pair.Key, err)
		}
	}
	return raw, nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	rec, err := RecordFrom(gjson.ParseBytes(probe))
	if err != nil {
		return err
	}
	r.fields = rec.fields
	return nil
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

// escapePath turns a field name into an sjson path that addresses exactly
// that key.
func escapePath(name string) string {
	return pathEscaper.Replace(name)
}
