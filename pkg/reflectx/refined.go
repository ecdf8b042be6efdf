package reflectx

import (
	"reflect"
)

// IsRefinedType checks if the provided reflect.Type is exactly the type of the
// generic parameter R. Named types never match their underlying type.
//
// Parameters:
//   - value: The reflect.Type to be checked.
//
// Returns:
//   - bool: True if value is R, otherwise false.
func IsRefinedType[R any](value reflect.Type) bool {
	return reflect.TypeFor[R]() == value
}
