package graphics

import (
	"fmt"

	"github.com/scenegrid/graphics/pool"
)

// strideModeUsage packs a buffer's stride, mode, and usage into one
// machine word, per the Design Notes' packed bit-fields guidance.
type strideModeUsage uint64

const (
	smuStrideBits = 32
	smuModeShift  = smuStrideBits
	smuUsageShift = smuStrideBits + 8
)

func packStrideModeUsage(stride uint32, mode Mode, usage Usage) strideModeUsage {
	return strideModeUsage(stride) |
		strideModeUsage(mode)<<smuModeShift |
		strideModeUsage(usage)<<smuUsageShift
}

func (s strideModeUsage) stride() uint32 { return uint32(s) }
func (s strideModeUsage) mode() Mode     { return Mode(s >> smuModeShift) }
func (s strideModeUsage) usage() Usage   { return Usage(s >> smuUsageShift) }

// ResourceBuffer is a stride×count buffer enforcing the mode/usage
// compatibility matrix from spec §3 (component F).
type ResourceBuffer struct {
	DeviceResource
	smu   strideModeUsage
	count uint32
}

// NewResourceBuffer constructs an unfrozen buffer description. It does
// not yet own a terminal entity; Create attaches one.
func NewResourceBuffer(rt ResourceType, count, stride uint32, mode Mode, usage Usage, sharable bool) (*ResourceBuffer, error) {
	if !ModeUsageAllowed(mode, usage) {
		return nil, fmt.Errorf("graphics: buffer: mode %s is not compatible with usage %s", mode, usage)
	}
	return &ResourceBuffer{
		DeviceResource: newDeviceResource(rt, sharable),
		smu:            packStrideModeUsage(stride, mode, usage),
		count:          count,
	}, nil
}

// Stride returns the buffer's per-element byte stride.
func (b *ResourceBuffer) Stride() uint32 { return b.smu.stride() }

// Count returns the buffer's element count.
func (b *ResourceBuffer) Count() uint32 { b.checkThread(); return b.count }

// Mode returns the buffer's update-cadence mode.
func (b *ResourceBuffer) Mode() Mode { return b.smu.mode() }

// Usage returns the buffer's CPU access usage.
func (b *ResourceBuffer) Usage() Usage { return b.smu.usage() }

// SizeInBytes returns stride × count.
func (b *ResourceBuffer) SizeInBytes() uint64 { return uint64(b.Stride()) * uint64(b.count) }

// PoolKey derives this buffer's shared-entity pool key from its
// resource type, stride, count, mode, and usage — spec §4.E's
// "buffer: equal count/stride/mode/usage" matching predicate.
func (b *ResourceBuffer) PoolKey() pool.Key {
	h := fnvOffset
	h = fnvMix(h, uint64(b.ResourceType()))
	h = fnvMix(h, uint64(b.smu))
	h = fnvMix(h, uint64(b.count))
	return pool.NewKey(b.ResourceType(), h)
}

// Create transfers exclusive ownership of a freshly allocated entity
// into the buffer and stamps its creation revision.
func (b *ResourceBuffer) Create(enc *DeviceEncapsulator, initialData []byte) error {
	b.checkThread()
	b.checkFrozen()

	if b.Mode() == ModeImmutable && initialData == nil {
		invariantViolation("immutable buffers must receive complete initial data at create time")
	}
	if initialData != nil && uint64(len(initialData)) != b.SizeInBytes() {
		invariantViolation("initial data length %d does not match buffer size %d", len(initialData), b.SizeInBytes())
	}

	if b.Sharable() {
		if ent, hit := enc.Pool().AcquireExclusive(b); hit {
			b.attachEntity(ent.(*terminalEntity))
			b.entity.SetCreatedAt(enc.Revision())
			return nil
		}
	}

	result, err := enc.encAPI.CreateResource(b.ResourceType(), bufferCreateDesc{
		SizeInBytes: b.SizeInBytes(),
		Usage:       b.Usage(),
		Mode:        b.Mode(),
		InitialData: initialData,
	})
	if err != nil {
		return &DeviceEncapsulatorException{Backend: enc.Backend().String(), Resource: &b.DeviceResource, Err: err}
	}

	ent := newTerminalEntity(enc.Backend(), b.ResourceType(), result.BackendObject, result.VideoMemoryBytes, result.Destroy)
	b.attachEntity(ent)
	ent.SetCreatedAt(enc.Revision())
	return nil
}

// Destroy yields ownership of the terminal entity back for backend
// disposal, or to the shared-entity pool if this buffer is sharable.
func (b *ResourceBuffer) Destroy(enc *DeviceEncapsulator) {
	b.checkThread()
	ent := b.detachEntity()
	if b.Sharable() {
		enc.Pool().ReleaseExclusive(b.PoolKey(), ent)
		return
	}
	ent.Destroy()
}

// Resize changes the buffer's element count. Only legal while no entity
// is attached.
func (b *ResourceBuffer) Resize(count uint32) {
	b.checkThread()
	b.checkNotFrozen()
	if b.Available() {
		invariantViolation("Resize called while a terminal entity is attached")
	}
	b.count = count
}

// GetData reads back length(dst) bytes starting at offset. Legal only
// for Staging+Read (and Staging+ReadWrite).
func (b *ResourceBuffer) GetData(offset uint64, dst []byte, readBack func(offset uint64, dst []byte) error) error {
	b.checkThread()
	if b.Mode() != ModeStaging || (b.Usage() != UsageRead && b.Usage() != UsageReadWrite) {
		invariantViolation("GetData requires Staging mode with Read or ReadWrite usage, got %s/%s", b.Mode(), b.Usage())
	}
	if !b.Available() {
		invariantViolation("GetData called on an unavailable buffer")
	}
	if offset+uint64(len(dst)) > b.SizeInBytes() {
		invariantViolation("GetData range [%d,%d) exceeds buffer size %d", offset, offset+uint64(len(dst)), b.SizeInBytes())
	}
	return readBack(offset, dst)
}

// SetData writes length(src) bytes starting at offset. Legal for all
// writable usages; the update strategy (update-subresource vs.
// map-discard vs. map-no-overwrite vs. map-write) is the caller's
// concern, selected via updateFn according to b.Mode()/b.Usage().
func (b *ResourceBuffer) SetData(offset uint64, src []byte, updateFn func(offset uint64, src []byte) error) error {
	b.checkThread()
	switch {
	case b.Usage() == UsageWrite, b.Usage() == UsageWriteDiscard, b.Usage() == UsageWriteNoOverwrite, b.Usage() == UsageReadWrite:
	default:
		invariantViolation("SetData requires a writable usage, got %s", b.Usage())
	}
	if !b.Available() {
		invariantViolation("SetData called on an unavailable buffer")
	}
	if offset+uint64(len(src)) > b.SizeInBytes() {
		invariantViolation("SetData range [%d,%d) exceeds buffer size %d", offset, offset+uint64(len(src)), b.SizeInBytes())
	}
	return updateFn(offset, src)
}

// CopyFrom requires src and b share SizeInBytes and that src is
// available; the actual backend copy is delegated to copyFn.
func (b *ResourceBuffer) CopyFrom(src *ResourceBuffer, copyFn func(src, dst *ResourceBuffer) error) error {
	b.checkThread()
	if src.SizeInBytes() != b.SizeInBytes() {
		invariantViolation("CopyFrom requires matching sizes, got %d and %d", src.SizeInBytes(), b.SizeInBytes())
	}
	if !src.Available() || !b.Available() {
		invariantViolation("CopyFrom requires both buffers be available")
	}
	return copyFn(src, b)
}

// CopySubPart requires a positive length and non-overlapping ranges
// within each resource when src == b.
func (b *ResourceBuffer) CopySubPart(dstOffset uint64, src *ResourceBuffer, srcOffset uint64, length uint64, copyFn func(dstOffset uint64, src *ResourceBuffer, srcOffset, length uint64) error) error {
	b.checkThread()
	if length == 0 {
		invariantViolation("CopySubPart requires a positive length")
	}
	if dstOffset+length > b.SizeInBytes() || srcOffset+length > src.SizeInBytes() {
		invariantViolation("CopySubPart range exceeds buffer bounds")
	}
	if src == b {
		dstEnd, srcEnd := dstOffset+length, srcOffset+length
		if dstOffset < srcEnd && srcOffset < dstEnd {
			invariantViolation("CopySubPart ranges overlap within the same buffer")
		}
	}
	return copyFn(dstOffset, src, srcOffset, length)
}

type bufferCreateDesc struct {
	SizeInBytes uint64
	Usage       Usage
	Mode        Mode
	InitialData []byte
}

// IndexBuffer is a thin typed shell over ResourceBuffer (component G).
type IndexBuffer struct{ ResourceBuffer }

// NewIndexBuffer constructs a sharable index buffer.
func NewIndexBuffer(count uint32, stride uint32, mode Mode, usage Usage) (*IndexBuffer, error) {
	buf, err := NewResourceBuffer(ResourceTypeIndices, count, stride, mode, usage, true)
	if err != nil {
		return nil, err
	}
	return &IndexBuffer{ResourceBuffer: *buf}, nil
}

// VertexBuffer is a thin typed shell over ResourceBuffer (component G).
type VertexBuffer struct{ ResourceBuffer }

// NewVertexBuffer constructs a sharable vertex buffer.
func NewVertexBuffer(count uint32, stride uint32, mode Mode, usage Usage) (*VertexBuffer, error) {
	buf, err := NewResourceBuffer(ResourceTypeVertices, count, stride, mode, usage, true)
	if err != nil {
		return nil, err
	}
	return &VertexBuffer{ResourceBuffer: *buf}, nil
}

// ConstantBuffer is a thin typed shell over ResourceBuffer (component G).
// Constant buffers are not sharable: their content is specific to one
// shader effect's wired parameters.
type ConstantBuffer struct{ ResourceBuffer }

// NewConstantBuffer constructs a non-sharable constant buffer.
func NewConstantBuffer(count uint32, stride uint32, mode Mode, usage Usage) (*ConstantBuffer, error) {
	buf, err := NewResourceBuffer(ResourceTypeConstants, count, stride, mode, usage, false)
	if err != nil {
		return nil, err
	}
	return &ConstantBuffer{ResourceBuffer: *buf}, nil
}
