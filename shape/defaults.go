package shape

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// ZeroTime is the canonical default of a Time field, the zero instant.
const ZeroTime = `"0001-01-01T00:00:00Z"`

// Default returns the canonical default value for s as raw JSON. It fails for
// object shapes with a field name that is not a valid member name, such as "".
func Default(s *Shape) (string, error) {
	return defaultOf(s, map[*Shape]bool{})
}

// Default returns the canonical default of the field as raw JSON.
func (f Field) Default() (string, error) {
	return f.defaultOf(map[*Shape]bool{})
}

func (f Field) defaultOf(seen map[*Shape]bool) (string, error) {
	if f.Nullable {
		return "null", nil
	}
	raw, err := defaultOf(f.Type, seen)
	if err != nil {
		return "", err
	}
	return f.quote(raw), nil
}

// quote wraps raw in a JSON string when the field is Quoted. Only bool and
// number literals are wrapped, they never need escaping.
func (f Field) quote(raw string) string {
	if !f.Quoted || f.Type == nil || !quotable(f.Type.Kind) || raw == "null" {
		return raw
	}
	return `"` + raw + `"`
}

func defaultOf(s *Shape, seen map[*Shape]bool) (string, error) {
	if s == nil {
		return "null", nil
	}
	switch s.Kind {
	case Bool:
		return "false", nil
	case Int, Uint, Float:
		return "0", nil
	case String:
		return `""`, nil
	case Time:
		return ZeroTime, nil
	case Object:
		if seen[s] {
			return "null", nil
		}
		seen[s] = true
		defer delete(seen, s)

		raw := []byte("{}")
		for pair := s.Fields.Oldest(); pair != nil; pair = pair.Next() {
			val, err := pair.Value.defaultOf(seen)
			if err != nil {
				return "", err
			}
			raw, err = sjson.SetRawBytes(raw, escapePath(pair.Key), []byte(val))
			if err != nil {
				return "", fmt.Errorf("default of %s field %q: %w", s, pair.Key, err)
			}
		}
		return string(raw), nil
	default:
		return "null", nil
	}
}
