// Package registry provides generation-checked slot storage used to back
// the process-wide registries in the graphics core: the vertex-declaration
// registry (one canonical entry per distinct field layout) and the binary
// serializer's deduplication tables (names, strings, classes, properties,
// objects). It is adapted from the teacher's core/id.go, core/identity.go
// and core/storage.go, trimmed of the WebGPU resource marker set since
// resources here are owned directly by pointer; only the registries need
// generation-checked indices.
package registry

import (
	"fmt"
)

// Index is the index component of a resource ID.
// It identifies the slot in the storage array.
type Index = uint32

// Epoch is the generation component of a resource ID.
// It prevents use-after-free by invalidating old IDs.
type Epoch = uint32

// RawID is the underlying 64-bit representation of a resource identifier.
// Layout: lower 32 bits = index, upper 32 bits = epoch.
type RawID uint64

// Zip combines an index and epoch into a RawID.
func Zip(index Index, epoch Epoch) RawID {
	return RawID(index) | (RawID(epoch) << 32)
}

// Unzip extracts the index and epoch from a RawID.
func (id RawID) Unzip() (Index, Epoch) {
	//nolint:gosec // G115: Safe conversion - masked to 32 bits
	return Index(id & 0xFFFFFFFF), Epoch(id >> 32)
}

// Index returns the index component of the RawID.
func (id RawID) Index() Index {
	//nolint:gosec // G115: Safe conversion - masked to 32 bits
	return Index(id & 0xFFFFFFFF)
}

// Epoch returns the epoch component of the RawID.
func (id RawID) Epoch() Epoch {
	//nolint:gosec // G115: Safe conversion - shifted down from upper 32 bits
	return Epoch(id >> 32)
}

// IsZero returns true if both index and epoch are zero.
func (id RawID) IsZero() bool {
	return id == 0
}

// String returns a string representation of the RawID.
func (id RawID) String() string {
	index, epoch := id.Unzip()
	return fmt.Sprintf("RawID(%d,%d)", index, epoch)
}

// Marker is a constraint for marker types used to distinguish ID types.
// Marker types are empty structs that provide compile-time type safety.
type Marker interface {
	marker() // unexported method prevents external implementation
}

// ID is a type-safe resource identifier parameterized by a marker type.
// Different registries (VertexDecl, Name, String, Class, Property, Object)
// have different marker types, preventing accidental misuse of IDs across
// registries.
type ID[T Marker] struct {
	raw RawID
}

// NewID creates a new ID from index and epoch components.
func NewID[T Marker](index Index, epoch Epoch) ID[T] {
	return ID[T]{raw: Zip(index, epoch)}
}

// FromRaw creates an ID from a raw representation.
// Use with caution - the caller must ensure type safety.
func FromRaw[T Marker](raw RawID) ID[T] {
	return ID[T]{raw: raw}
}

// Raw returns the underlying RawID.
func (id ID[T]) Raw() RawID {
	return id.raw
}

// Unzip extracts the index and epoch from the ID.
func (id ID[T]) Unzip() (Index, Epoch) {
	return id.raw.Unzip()
}

// Index returns the index component of the ID.
func (id ID[T]) Index() Index {
	return id.raw.Index()
}

// Epoch returns the epoch component of the ID.
func (id ID[T]) Epoch() Epoch {
	return id.raw.Epoch()
}

// IsZero returns true if the ID is zero (invalid).
func (id ID[T]) IsZero() bool {
	return id.raw.IsZero()
}

// String returns a string representation of the ID.
func (id ID[T]) String() string {
	index, epoch := id.Unzip()
	return fmt.Sprintf("ID(%d,%d)", index, epoch)
}

// Marker types for each registry kind.
// These are empty structs that implement the Marker interface.

type vertexDeclMarker struct{}

func (vertexDeclMarker) marker() {}

type nameMarker struct{}

func (nameMarker) marker() {}

type stringMarker struct{}

func (stringMarker) marker() {}

type wideStringMarker struct{}

func (wideStringMarker) marker() {}

type classMarker struct{}

func (classMarker) marker() {}

type propertyMarker struct{}

func (propertyMarker) marker() {}

type objectMarker struct{}

func (objectMarker) marker() {}

// Type aliases for registry IDs.
// These provide convenient, readable type names.

// VertexDeclID identifies an entry in the process-wide vertex-declaration
// registry (§4.I).
type VertexDeclID = ID[vertexDeclMarker]

// NameID identifies an entry in the serializer's name dedup table (§4.M).
type NameID = ID[nameMarker]

// StringID identifies an entry in the serializer's string dedup table.
type StringID = ID[stringMarker]

// WideStringID identifies an entry in the serializer's wide-string dedup
// table.
type WideStringID = ID[wideStringMarker]

// ClassID identifies an entry in the serializer's class dedup table.
type ClassID = ID[classMarker]

// PropertyID identifies an entry in the serializer's per-class property
// dedup table.
type PropertyID = ID[propertyMarker]

// ObjectID identifies an entry in the serializer's object table.
type ObjectID = ID[objectMarker]
