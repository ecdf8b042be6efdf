package jsonx

import (
	"reflect"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type sample struct {
	MyInt      int
	Data       string
	IgnoreThis int `json:"ignore_this"`
}

func TestInterchange(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		check   func(t *testing.T, got gjson.Result)
		wantErr bool
	}{
		{
			name:  "struct",
			input: sample{MyInt: 999, Data: "hello", IgnoreThis: 123},
			check: func(t *testing.T, got gjson.Result) {
				assert.True(t, got.IsObject())
				assert.Equal(t, int64(999), got.Get("MyInt").Int())
				assert.Equal(t, "hello", got.Get("Data").String())
				assert.Equal(t, int64(123), got.Get("ignore_this").Int())
			},
		},
		{
			name:  "scalar",
			input: "hello",
			check: func(t *testing.T, got gjson.Result) {
				assert.Equal(t, gjson.String, got.Type)
				assert.Equal(t, "hello", got.String())
			},
		},
		{
			name:  "nil",
			input: nil,
			check: func(t *testing.T, got gjson.Result) {
				assert.Equal(t, gjson.Null, got.Type)
			},
		},
		{
			name:  "already parsed",
			input: gjson.Parse(`{"a":1}`),
			check: func(t *testing.T, got gjson.Result) {
				assert.Equal(t, `{"a":1}`, got.Raw)
			},
		},
		{
			name:  "raw message",
			input: json.RawMessage(`[1,2]`),
			check: func(t *testing.T, got gjson.Result) {
				assert.True(t, got.IsArray())
				assert.Len(t, got.Array(), 2)
			},
		},
		{
			name:    "channel",
			input:   make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interchange(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("struct", func(t *testing.T) {
		v, err := Decode([]byte(`{"MyInt":1,"Data":"x"}`), reflect.TypeFor[sample]())
		require.NoError(t, err)
		assert.Equal(t, sample{MyInt: 1, Data: "x"}, v)
	})

	t.Run("pointer", func(t *testing.T) {
		v, err := Decode([]byte(`{"MyInt":1}`), reflect.TypeFor[*sample]())
		require.NoError(t, err)
		require.IsType(t, &sample{}, v)
		assert.Equal(t, 1, v.(*sample).MyInt)
	})

	t.Run("null pointer", func(t *testing.T) {
		v, err := Decode([]byte(`null`), reflect.TypeFor[*sample]())
		require.NoError(t, err)
		assert.Nil(t, v.(*sample))
	})

	t.Run("zero time", func(t *testing.T) {
		v, err := Decode([]byte(`"0001-01-01T00:00:00Z"`), reflect.TypeFor[time.Time]())
		require.NoError(t, err)
		assert.True(t, v.(time.Time).IsZero())
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := Decode([]byte(`{"MyInt":"nope"}`), reflect.TypeFor[sample]())
		assert.Error(t, err)
	})

	t.Run("nil type", func(t *testing.T) {
		_, err := Decode([]byte(`{}`), nil)
		assert.Error(t, err)
	})
}

func TestMarshalIndent(t *testing.T) {
	b, err := MarshalIndent(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(b))
}
