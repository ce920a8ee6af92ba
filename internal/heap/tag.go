package heap

// Tag identifies the kind of a heap object. It occupies the object's first
// word. The integer values are part of the binary contract with the managed
// runtime's code generator - do not renumber.
type Tag uint64

const (
	TagInvalid     Tag = 0
	TagObject      Tag = 1
	TagObjInd      Tag = 2
	TagArray       Tag = 3
	TagReference   Tag = 4
	TagInt         Tag = 5
	TagMutBox      Tag = 6
	TagClosure     Tag = 7
	TagSome        Tag = 8
	TagVariant     Tag = 9
	TagBlob        Tag = 10
	TagIndirection Tag = 11
	TagSmallWord   Tag = 12
	TagBigInt      Tag = 13
)

// Valid reports whether t is a member of the closed tag enumeration.
// Anything else seen in a tag word is a fatal inconsistency.
func (t Tag) Valid() bool {
	return t > TagInvalid && t <= TagBigInt
}

// HasLen reports whether objects of this kind carry a length word at
// field 1.
func (t Tag) HasLen() bool {
	return t == TagArray || t == TagBlob
}

func (t Tag) String() string {
	switch t {
	case TagInvalid:
		return "invalid"
	case TagObject:
		return "object"
	case TagObjInd:
		return "objind"
	case TagArray:
		return "array"
	case TagReference:
		return "reference"
	case TagInt:
		return "int"
	case TagMutBox:
		return "mutbox"
	case TagClosure:
		return "closure"
	case TagSome:
		return "some"
	case TagVariant:
		return "variant"
	case TagBlob:
		return "blob"
	case TagIndirection:
		return "indirection"
	case TagSmallWord:
		return "smallword"
	case TagBigInt:
		return "bigint"
	default:
		return "unknown"
	}
}
