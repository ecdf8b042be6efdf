/*
Package shape describes values structurally so that a value produced under one
type can be handed out under another.

A Shape is a runtime type token. It is derived from a Go type with Of or
FromType, or from a JSON Schema document with FromSchema:

	s := shape.MustOf[Invoice]()
	fmt.Println(s.Describe()) // object{ID string, Total float, Due time}

# Adaptation

Convert and Adapt reconcile two shapes over the JSON interchange form of a
value. Object fields are matched by name:

  - fields known to both shapes are converted recursively
  - fields only the source knows are dropped
  - fields only the target knows get their canonical default (see Default)

Scalars convert only along widening or lossless paths: integers to floats,
signed to unsigned and back when the value fits, timestamps to strings. Any
other mismatch is reported as an *IncompatibleError.

# Records

A Record is the generic target of adaptation when the requested shape is not
bound to a Go type: an ordered map of field names to JSON values.
*/
package shape
