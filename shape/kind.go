package shape

// Kind classifies a shape by the interchange value it describes.
type Kind uint8

const (
	// Any accepts every value and is never adapted.
	Any Kind = iota
	Bool
	Int
	Uint
	Float
	String
	// Time is an RFC 3339 timestamp carried as a string.
	Time
	// Bytes is base64 encoded binary data carried as a string.
	Bytes
	Object
	Array
	// Map is an object with arbitrary string keys and one element shape.
	Map
)

var kindNames = [...]string{
	Any:    "any",
	Bool:   "bool",
	Int:    "int",
	Uint:   "uint",
	Float:  "float",
	String: "string",
	Time:   "time",
	Bytes:  "bytes",
	Object: "object",
	Array:  "array",
	Map:    "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsScalar reports whether values of this kind have no inner structure.
func (k Kind) IsScalar() bool {
	switch k {
	case Bool, Int, Uint, Float, String, Time, Bytes:
		return true
	default:
		return false
	}
}

// convertible reports whether a scalar of kind from may be copied into a
// field of kind to.
func convertible(from, to Kind) bool {
	if from == to || from == Any || to == Any {
		return true
	}
	switch to {
	case Float:
		return from == Int || from == Uint
	case Int:
		return from == Uint
	case Uint:
		return from == Int
	case String:
		return from == Time
	default:
		return false
	}
}

// quotable reports whether values of kind k can travel quoted, see
// Field.Quoted.
func quotable(k Kind) bool {
	switch k {
	case Bool, Int, Uint, Float:
		return true
	default:
		return false
	}
}
