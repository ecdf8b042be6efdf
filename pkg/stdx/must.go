package stdx

// Must0 panics if err is not nil.
//
// Parameters:
//   - err: The error to check.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v, or panics when err is not nil. It is meant for package level
// initialization of values that cannot fail for well-formed input, such as
// shapes of types known at compile time.
//
// Example usage:
//
//	var clockShape = stdx.Must1(shape.Of[Clock]())
//
// T: The type of the value to be returned.
// v: The value to be returned if err is nil.
// err: The error to check.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
