package serialize

// AtomKind discriminates the tagged atom union framed by ASCR/APAR/
// AVEC/ADIC/ATOM/ANUL in §4.M.
type AtomKind uint8

const (
	AtomNull AtomKind = iota
	AtomScalar
	AtomPair
	AtomVector
	AtomDict
	AtomNested
	AtomObjectRef
)

// Atom is the in-memory form of one property value: a scalar, a pair,
// a homogeneous vector, a heterogeneous-keyed dict, a nested atom, a
// null, or an object reference (ONUL or an index into the object
// header table). TypeID is opaque here — it is assigned and
// interpreted by the Reflector the serializer is driven by (spec §6:
// "this contract is a dependency; it is not re-specified here").
type Atom struct {
	Kind   AtomKind
	TypeID uint32

	// Scalar holds a scalar value's raw little-endian bit pattern
	// (integers and floats alike), or a string/wide-string/name index
	// when TypeID names one of those kinds.
	Scalar uint64

	// Pair holds APAR's two atoms.
	Pair [2]*Atom

	// Items holds AVEC's homogeneous element list.
	Items []Atom

	// Entries holds ADIC's key/value pairs.
	Entries []DictEntry

	// Nested holds ATOM's wrapped atom.
	Nested *Atom

	// ObjectIndex is the object-header-table index an AtomObjectRef
	// points at, or -1 for ONUL.
	ObjectIndex int32

	// Object is the live referent of an AtomObjectRef before it has
	// been resolved to an ObjectIndex (on write, by WrapCopy's caller
	// looking it up in the Transaction) or after it has been resolved
	// back from one (on read, before MoveFrom is called). Neither
	// PropertyDescriptor method ever sees a Transaction directly —
	// resolution happens in serializeObjectBody/readObjectBody, which
	// do.
	Object any
}

// DictEntry is one ADIC key/value pair.
type DictEntry struct {
	Key, Value Atom
}

// Null returns the ANUL atom.
func Null() Atom { return Atom{Kind: AtomNull} }

// NewScalar builds an ASCR atom from a raw little-endian bit pattern.
func NewScalar(typeID uint32, bits uint64) Atom {
	return Atom{Kind: AtomScalar, TypeID: typeID, Scalar: bits}
}

// NewObjectRef builds an object-valued atom from an already-resolved
// object-header-table index: ONUL if idx < 0.
func NewObjectRef(idx int32) Atom {
	return Atom{Kind: AtomObjectRef, ObjectIndex: idx}
}

// ObjectRef builds an object-valued atom from a live referent, for use
// inside a PropertyDescriptor.WrapCopy implementation. obj == nil
// produces ONUL directly; a non-nil obj is resolved to its object
// index by the serializer once it has Transaction access.
func ObjectRef(obj any) Atom {
	if obj == nil {
		return Atom{Kind: AtomObjectRef, ObjectIndex: -1}
	}
	return Atom{Kind: AtomObjectRef, Object: obj}
}
