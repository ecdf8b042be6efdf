package reflectx

import (
	"context"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type functionTestStruct struct{}

func (t *functionTestStruct) method() {}
func (t functionTestStruct) method2() {}

func regularFunction()   {}
func withParams(x int)   {}
func withReturn() error  { return nil }
func variadic(...string) {}

type namedGetter func(context.Context, string) (any, error)

func TestFunctionValidation(t *testing.T) {
	tests := []struct {
		name string
		fn   interface{}
		want bool
	}{
		{"nil", nil, false},
		{"int", 42, false},
		{"string", "not a func", false},
		{"struct", functionTestStruct{}, false},
		{"regular function", regularFunction, true},
		{"anonymous function", func() {}, true},
		{"function with params", withParams, true},
		{"function with return", withReturn, true},
		{"variadic function", variadic, true},
		{"pointer method", (*functionTestStruct).method, true},
		{"value method", (functionTestStruct).method2, true},
		{"named function type", namedGetter(nil), true},
	}

	for tt := range slices.Values(tests) {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsFunction(tt.fn))
		})
	}
}

type methodTestStruct struct{}

func (m *methodTestStruct) pointerMethod()              {}
func (m methodTestStruct) valueMethod()                 {}
func (m *methodTestStruct) pointerMethodWithArgs(x int) {}

func takesStructPointer(x *methodTestStruct) {}

func TestFunctionName(t *testing.T) {
	tests := []struct {
		name     string
		fn       interface{}
		expected string
	}{
		{"nil", nil, ""},
		{"int", 42, ""},
		{"string", "not a func", ""},
		{"regular function", regularFunction, "regularFunction"},
		{"function with params", withParams, "withParams"},
		{"function with return", withReturn, "withReturn"},
		{"variadic function", variadic, "variadic"},
		{"pointer method", (*methodTestStruct).pointerMethod, "pointerMethod"},
		{"value method", (methodTestStruct).valueMethod, "valueMethod"},
		{"method with args", (*methodTestStruct).pointerMethodWithArgs, "pointerMethodWithArgs"},
		{"function taking struct pointer", takesStructPointer, "takesStructPointer"},
		{"named function type", namedGetter(func(context.Context, string) (any, error) { return nil, nil }), "reflectx.namedGetter"},
	}

	for tt := range slices.Values(tests) {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, FunctionName(tt.fn))
		})
	}

	t.Run("closure keeps its enclosing function", func(t *testing.T) {
		got := FunctionName(func() {})
		require.Contains(t, got, "TestFunctionName")
		require.NotContains(t, got, "/")
	})
}

type localType struct{}

func TestTypeName(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want string
	}{
		{"nil", nil, ""},
		{"builtin", reflect.TypeFor[string](), "string"},
		{"named", reflect.TypeFor[localType](), "github.com/casualjim/parley/pkg/reflectx.localType"},
		{"pointer", reflect.TypeFor[*localType](), "*github.com/casualjim/parley/pkg/reflectx.localType"},
		{"slice", reflect.TypeFor[[]time.Time](), "[]time.Time"},
		{"map", reflect.TypeFor[map[string]*localType](), "map[string]*github.com/casualjim/parley/pkg/reflectx.localType"},
		{"interface", reflect.TypeFor[context.Context](), "context.Context"},
	}

	for tt := range slices.Values(tests) {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TypeName(tt.typ))
		})
	}
}
