package serialize

// Reflector is the reflection contract the serializer is driven by
// (spec §6): "an iterable property list exposing { name, type-id,
// WrapCopy(obj)→atom, UnwrapMove(obj, atom), IsDefaultValue(obj),
// MoveFrom(obj, atom) }; a parent-class pointer; a factory
// CreateInstance()... a traits object exposing CreateDefaultValue(),
// KeyTraits()/ValueTraits() (for containers), and first/second traits
// (for pairs)." It is a dependency of this package, supplied by the
// engine's object model — not re-implemented here.
//
// TypeID is opaque to this package except for three reserved sentinel
// values (TypeIDName/TypeIDString/TypeIDWString) that mark a scalar as
// a dedup-table index rather than a raw POD value. Every other TypeID's
// scalar payload is carried as a fixed 8-byte little-endian word: the
// wire format has no per-type-id width metadata to consult, so this
// package picks one canonical scalar width rather than guessing one
// from a registry it does not have access to.
const (
	TypeIDName uint32 = 1<<32 - 1 - iota
	TypeIDString
	TypeIDWString
)

// Registry resolves class and property names against the live
// reflection database — spec §4.M deserialize step (1): "classes and
// properties are resolved against the reflection registry — unknown
// names fail."
type Registry interface {
	ClassByName(name string) (ClassDescriptor, bool)
}

// ClassDescriptor describes one meta-class: its own (non-inherited)
// properties, its parent in the meta-class chain, and a factory for
// fresh instances.
type ClassDescriptor interface {
	Name() string
	Parent() ClassDescriptor // nil at the root of the chain
	Properties() []PropertyDescriptor
	CreateInstance() any
}

// PropertyDescriptor describes one property declared directly on a
// ClassDescriptor.
type PropertyDescriptor interface {
	Name() string
	Traits() PropertyTraits
	WrapCopy(obj any) Atom
	UnwrapMove(obj any, a Atom)
	IsDefaultValue(obj any) bool
	MoveFrom(obj any, a Atom)
}

// PropertyTraits describes how to dispatch one property's value
// during deserialization: whether it is an object reference (read as
// ONUL-or-index rather than a tagged atom) and, for containers and
// pairs, the traits of its nested slots.
type PropertyTraits interface {
	TypeID() uint32
	IsObjectRef() bool
	CreateDefaultValue() Atom
	KeyTraits() PropertyTraits
	ValueTraits() PropertyTraits
	FirstTraits() PropertyTraits
	SecondTraits() PropertyTraits
}
