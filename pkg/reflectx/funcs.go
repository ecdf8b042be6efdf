package reflectx

import (
	"reflect"
	"runtime"
	"strings"
)

// IsFunction reports whether fn holds a function value.
func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	return reflect.TypeOf(fn).Kind() == reflect.Func
}

// FunctionName returns a short, human readable name for a function value.
// Named function types use their type name, everything else falls back to the
// symbol the runtime knows the function by, without its package path.
// Closures keep their enclosing function in the name, e.g. "TestAsk.func1".
//
// Parameters:
//   - fn: the function value to name.
//
// Returns:
//   - string: the name, or "" when fn is not a function.
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()
	if typ.Name() != "" {
		return typ.String()
	}

	rf := runtime.FuncForPC(val.Pointer())
	if rf == nil {
		return typ.String()
	}

	name := rf.Name()
	if slash := strings.LastIndex(name, "/"); slash >= 0 {
		name = name[slash+1:]
	}
	// drop the package qualifier, keep the rest of the symbol path
	if dot := strings.Index(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if strings.HasPrefix(name, "(") || firstParamIsStruct(typ) {
		// method expressions: (*Type).Method or Type.Method
		if dot := strings.LastIndex(name, "."); dot >= 0 {
			name = name[dot+1:]
		}
	}
	return name
}

func firstParamIsStruct(typ reflect.Type) bool {
	if typ.NumIn() == 0 {
		return false
	}
	first := typ.In(0)
	for first.Kind() == reflect.Pointer {
		first = first.Elem()
	}
	return first.Kind() == reflect.Struct
}

// TypeName returns a fully qualified name for t that is unique within a
// program: the package path plus the type name for named types, with
// pointer, slice and map decorations spelled out for unnamed ones.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name()
		}
		return t.PkgPath() + "." + t.Name()
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + TypeName(t.Elem())
	case reflect.Slice:
		return "[]" + TypeName(t.Elem())
	case reflect.Map:
		return "map[" + TypeName(t.Key()) + "]" + TypeName(t.Elem())
	default:
		return t.String()
	}
}
