package stdx

// Zero returns the zero value for a given type T: 0 for numbers, "" for
// strings, nil for pointers, interfaces, channels, maps and slices, the zero
// instant for time.Time, and a struct of zero fields for structs.
//
// Generic functions use it on their error paths:
//
//	if err != nil {
//		return stdx.Zero[T](), err
//	}
func Zero[T any]() T {
	var zero T
	return zero
}
