package graphics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/scenegrid/graphics/internal/registry"
	"github.com/scenegrid/graphics/value"
)

// VertexField is one entry of a VertexDeclaration: a semantic tag, its
// index (for semantics that repeat, e.g. TEXCOORD0/TEXCOORD1), the
// value type stored there, and its byte offset within the vertex.
type VertexField struct {
	Semantic      string
	SemanticIndex uint32
	ValueType     value.Type
	ByteOffset    uint32
}

func valueTypeName(t value.Type) string {
	switch t {
	case value.TypeBool:
		return "bool"
	case value.TypeInt32:
		return "int32"
	case value.TypeUint32:
		return "uint32"
	case value.TypeFloat32:
		return "float"
	case value.TypeFloat2:
		return "float2"
	case value.TypeFloat3:
		return "float3"
	case value.TypeFloat4:
		return "float4"
	case value.TypeHalf2:
		return "half2"
	case value.TypeHalf4:
		return "half4"
	case value.TypeByte2N:
		return "byte2n"
	case value.TypeByte4N:
		return "byte4n"
	case value.TypeUByte2N:
		return "ubyte2n"
	case value.TypeUByte4N:
		return "ubyte4n"
	case value.TypeShort2N:
		return "short2n"
	case value.TypeShort4N:
		return "short4n"
	case value.TypeUShort2N:
		return "ushort2n"
	case value.TypeUShort4N:
		return "ushort4n"
	case value.TypeUX10Y10Z10W2N:
		return "UX10Y10Z10W2N"
	default:
		return fmt.Sprintf("type%d", t)
	}
}

// maxVertexFields is the per-declaration field limit named in spec §3.
const maxVertexFields = 6

// VertexDeclaration is an ordered field list with a deterministic
// canonical name, registered process-wide once frozen (component I).
type VertexDeclaration struct {
	DeviceResource
	fields        []VertexField
	sizeInBytes   uint32
	canonicalName string
	id            registry.VertexDeclID
}

// NewVertexDeclaration builds an empty, unfrozen vertex declaration.
func NewVertexDeclaration() *VertexDeclaration {
	return &VertexDeclaration{
		DeviceResource: newDeviceResource(ResourceTypeVertexDeclaration, false),
	}
}

// AddSubPart appends a field. offset must be a multiple of 4 bytes and
// the declaration must not already hold the maximum six fields.
func (d *VertexDeclaration) AddSubPart(semantic string, index uint32, vt value.Type, offset uint32) {
	d.checkThread()
	d.checkNotFrozen()
	if offset%4 != 0 {
		invariantViolation("vertex field offset %d must be a multiple of 4 bytes", offset)
	}
	if len(d.fields) >= maxVertexFields {
		invariantViolation("vertex declaration already holds the maximum of %d fields", maxVertexFields)
	}
	d.fields = append(d.fields, VertexField{Semantic: semantic, SemanticIndex: index, ValueType: vt, ByteOffset: offset})
}

// SubPartBySemantic returns the field matching semantic/index, or
// panics if none is found — the non-IFP ("if present") variant fails
// loudly per spec §4.I.
func (d *VertexDeclaration) SubPartBySemantic(semantic string, index uint32) VertexField {
	f, ok := d.SubPartBySemanticIFP(semantic, index)
	if !ok {
		invariantViolation("no vertex field for semantic %s%d", semantic, index)
	}
	return f
}

// SubPartBySemanticIFP returns the field matching semantic/index and
// true, or the zero VertexField and false on a miss.
func (d *VertexDeclaration) SubPartBySemanticIFP(semantic string, index uint32) (VertexField, bool) {
	d.checkThread()
	for _, f := range d.fields {
		if f.Semantic == semantic && f.SemanticIndex == index {
			return f, true
		}
	}
	return VertexField{}, false
}

// Fields returns the declaration's field list in registration order.
func (d *VertexDeclaration) Fields() []VertexField {
	d.checkThread()
	out := make([]VertexField, len(d.fields))
	copy(out, d.fields)
	return out
}

// SizeInBytes returns the declaration's total vertex stride.
func (d *VertexDeclaration) SizeInBytes() uint32 { return d.sizeInBytes }

// CanonicalName returns the declaration's deterministic name, valid only
// after Freeze.
func (d *VertexDeclaration) CanonicalName() string {
	d.checkThread()
	d.checkFrozen()
	return d.canonicalName
}

// ID returns the declaration's generation-checked process-wide identity,
// valid only after Freeze — the same allocate-on-register pattern
// resource.go's DeviceResource uses for its own identity, applied here
// to the vertex-declaration registry's entries (spec §4.I names the
// registry; the identity each entry needs to be referenced by is this
// package's own addition, following DESIGN.md's identity-allocation
// convention rather than the bare canonical-name string).
func (d *VertexDeclaration) ID() registry.VertexDeclID {
	d.checkThread()
	d.checkFrozen()
	return d.id
}

// canonicalNameOf computes the canonical name as a deterministic
// concatenation of "__<semantic><index>_<valueTypeName>" segments, per
// spec §4.I — the function is injective modulo field order, so two
// declarations with identical field sequences yield identical names
// (spec invariant 10).
func canonicalNameOf(fields []VertexField) string {
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "__%s%d_%s", f.Semantic, f.SemanticIndex, valueTypeName(f.ValueType))
	}
	return b.String()
}

// Freeze latches the declaration, computes its canonical name, and
// registers it in the process-wide registry under that name.
func (d *VertexDeclaration) Freeze() {
	d.DeviceResource.Freeze()
	var size uint32
	for _, f := range d.fields {
		size += vertexFieldSize(f.ValueType)
	}
	d.sizeInBytes = size
	d.canonicalName = canonicalNameOf(d.fields)
	d.id = vertexDeclIDs.Alloc()
	registerVertexDeclaration(d.canonicalName, d)
}

func vertexFieldSize(t value.Type) uint32 {
	switch t {
	case value.TypeFloat32, value.TypeInt32, value.TypeUint32, value.TypeUX10Y10Z10W2N:
		return 4
	case value.TypeByte4N, value.TypeUByte4N:
		return 4
	case value.TypeFloat3:
		return 12
	case value.TypeFloat4:
		return 16
	case value.TypeHalf2, value.TypeByte2N, value.TypeUByte2N, value.TypeShort2N, value.TypeUShort2N:
		return 4
	case value.TypeFloat2, value.TypeHalf4, value.TypeShort4N, value.TypeUShort4N:
		return 8
	default:
		return 4
	}
}

// CopyVertex walks the fields of decl and copies each in turn from
// src to dst, used when no format-narrowing conversion is required.
func CopyVertex(decl *VertexDeclaration, dst, src []byte) {
	for _, f := range decl.fields {
		size := vertexFieldSize(f.ValueType)
		copy(dst[f.ByteOffset:f.ByteOffset+size], src[f.ByteOffset:f.ByteOffset+size])
	}
}

// vertexDeclRegistry is the process-wide canonical-name -> declaration
// map (spec §3: "a process-wide registry maps canonical name ->
// declaration"). It is written only during Freeze calls, which per
// spec §5 happen only at process startup/registration time and are
// otherwise read-only, so a single mutex protecting the whole map is
// sufficient and matches the "no locking within the core, only around
// genuinely global state" stance in spec §5.
var (
	vertexDeclMu       sync.Mutex
	vertexDeclRegistry = map[string]*VertexDeclaration{}
	vertexDeclByID     = map[registry.VertexDeclID]*VertexDeclaration{}
	vertexDeclIDs      = registry.NewIdentityManager[registry.VertexDeclID]()
)

func registerVertexDeclaration(name string, decl *VertexDeclaration) {
	vertexDeclMu.Lock()
	defer vertexDeclMu.Unlock()
	if _, exists := vertexDeclRegistry[name]; exists {
		return
	}
	vertexDeclRegistry[name] = decl
	vertexDeclByID[decl.id] = decl
}

// LookupVertexDeclaration returns the declaration registered under name,
// or nil if none has been registered.
func LookupVertexDeclaration(name string) *VertexDeclaration {
	vertexDeclMu.Lock()
	defer vertexDeclMu.Unlock()
	return vertexDeclRegistry[name]
}

// LookupVertexDeclarationByID returns the declaration holding id, or nil
// if id was never allocated by Freeze, has since been invalidated by a
// registry reset, or belongs to a declaration whose canonical name an
// earlier declaration had already registered.
func LookupVertexDeclarationByID(id registry.VertexDeclID) *VertexDeclaration {
	vertexDeclMu.Lock()
	defer vertexDeclMu.Unlock()
	return vertexDeclByID[id]
}

// ResetVertexDeclarationRegistry clears the process-wide registry. Test
// fixtures bracket Startup/Shutdown with this per the Design Notes'
// "global state" guidance.
func ResetVertexDeclarationRegistry() {
	vertexDeclMu.Lock()
	defer vertexDeclMu.Unlock()
	vertexDeclRegistry = map[string]*VertexDeclaration{}
	vertexDeclByID = map[registry.VertexDeclID]*VertexDeclaration{}
	vertexDeclIDs = registry.NewIdentityManager[registry.VertexDeclID]()
}
