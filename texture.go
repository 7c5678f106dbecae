package graphics

import (
	"github.com/scenegrid/graphics/format"
	"github.com/scenegrid/graphics/pool"
)

// Texture is the common base of Texture2D and TextureCube (component H):
// format, mode, and usage, shared by every texture specialization.
type Texture struct {
	DeviceResource
	format format.SurfaceFormatType
	mode   Mode
	usage  Usage
}

// Format returns the texture's surface format.
func (t *Texture) Format() format.SurfaceFormatType { return t.format }

// Mode returns the texture's update-cadence mode.
func (t *Texture) Mode() Mode { return t.mode }

// Usage returns the texture's CPU access usage.
func (t *Texture) Usage() Usage { return t.usage }

// Texture2D adds width, height, and a mip-level count to Texture.
type Texture2D struct {
	Texture
	width, height uint32
	levelCount    uint32
}

// NewTexture2D constructs an unfrozen 2D texture description. width and
// height must be multiples of the format's block size, and the deepest
// mip must have a non-zero extent — spec §3 invariants.
func NewTexture2D(rt ResourceType, f format.SurfaceFormatType, width, height, levelCount uint32, mode Mode, usage Usage, sharable bool) *Texture2D {
	if !ModeUsageAllowed(mode, usage) {
		invariantViolation("texture mode %s is not compatible with usage %s", mode, usage)
	}
	blockSize := format.BlockSize(f)
	if width%blockSize != 0 || height%blockSize != 0 {
		invariantViolation("texture width/height must be multiples of the format's block size %d", blockSize)
	}
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	if levelCount == 0 || maxDim>>(levelCount-1) == 0 {
		invariantViolation("texture level count %d is too large for dimensions %dx%d", levelCount, width, height)
	}

	return &Texture2D{
		Texture: Texture{
			DeviceResource: newDeviceResource(rt, sharable),
			format:         f,
			mode:           mode,
			usage:          usage,
		},
		width:      width,
		height:     height,
		levelCount: levelCount,
	}
}

// Width returns the texture's base mip width.
func (t *Texture2D) Width() uint32 { return t.width }

// Height returns the texture's base mip height.
func (t *Texture2D) Height() uint32 { return t.height }

// LevelCount returns the texture's mip-level count.
func (t *Texture2D) LevelCount() uint32 { return t.levelCount }

// SizeInBytes sums the format's per-level block layout over every mip.
func (t *Texture2D) SizeInBytes() uint64 {
	return format.SizeOfTexture2DLevels(t.format, t.width, t.height, t.levelCount)
}

// PoolKey derives this texture's shared-entity pool key from its
// resource type, format, width, height, level count, mode, and usage —
// spec §4.E's "texture: additionally equal width/height/levelCount/format".
func (t *Texture2D) PoolKey() pool.Key {
	h := fnvOffset
	h = fnvMix(h, uint64(t.ResourceType()))
	h = fnvMix(h, uint64(t.format))
	h = fnvMix(h, uint64(t.width))
	h = fnvMix(h, uint64(t.height))
	h = fnvMix(h, uint64(t.levelCount))
	h = fnvMix(h, uint64(t.mode))
	h = fnvMix(h, uint64(t.usage))
	return pool.NewKey(t.ResourceType(), h)
}

// subResourceIndex returns the backend's linear sub-resource index for
// a 2D texture mip: level (no face component).
func (t *Texture2D) subResourceIndex(level uint32) uint32 { return level }

// Create transfers exclusive ownership of a freshly allocated entity
// into the texture, acquiring a parked equivalent from the shared-entity
// pool first when sharable.
func (t *Texture2D) Create(enc *DeviceEncapsulator) error {
	t.checkThread()
	t.checkFrozen()

	if t.Sharable() {
		if ent, hit := enc.Pool().AcquireExclusive(t); hit {
			t.attachEntity(ent.(*terminalEntity))
			t.entity.SetCreatedAt(enc.Revision())
			return nil
		}
	}

	result, err := enc.encAPI.CreateResource(t.ResourceType(), textureCreateDesc{
		Format:     uint32(t.format),
		Width:      t.width,
		Height:     t.height,
		LevelCount: t.levelCount,
		Usage:      t.usage,
		Mode:       t.mode,
	})
	if err != nil {
		return &DeviceEncapsulatorException{Backend: enc.Backend().String(), Resource: &t.DeviceResource, Err: err}
	}
	ent := newTerminalEntity(enc.Backend(), t.ResourceType(), result.BackendObject, t.SizeInBytes(), result.Destroy)
	t.attachEntity(ent)
	ent.SetCreatedAt(enc.Revision())
	return nil
}

// Destroy yields the texture's terminal entity back for backend
// disposal, or to the shared-entity pool if this texture is sharable.
func (t *Texture2D) Destroy(enc *DeviceEncapsulator) {
	t.checkThread()
	ent := t.detachEntity()
	if t.Sharable() {
		enc.Pool().ReleaseExclusive(t.PoolKey(), ent)
		return
	}
	ent.Destroy()
}

// Box describes a sub-region of a texture mip level in texels.
type Box struct {
	X, Y, Width, Height uint32
}

func (b Box) empty() bool { return b.Width == 0 || b.Height == 0 }

// CopySubPart validates and (via copyFn) dispatches a block-aware
// sub-region copy from src's srcLevel/srcBox into dst's dstLevel at
// dstXY — spec §4.H.
func (t *Texture2D) CopySubPart(dstLevel uint32, dstX, dstY uint32, src *Texture2D, srcLevel uint32, srcBox Box, copyFn func(dst *Texture2D, dstLevel, dstX, dstY uint32, src *Texture2D, srcLevel uint32, srcBox Box) error) error {
	t.checkThread()
	if !t.Frozen() || !t.Available() || !src.Frozen() || !src.Available() {
		invariantViolation("CopySubPart requires both textures be frozen and available")
	}
	if t.Usage() == UsageRead {
		invariantViolation("CopySubPart destination must be writable")
	}
	if src.Usage() != UsageRead && src.Usage() != UsageReadWrite {
		invariantViolation("CopySubPart source must be readable")
	}
	if dstLevel >= t.levelCount {
		invariantViolation("CopySubPart dstLevel %d out of range [0,%d)", dstLevel, t.levelCount)
	}
	dstW, dstH := mipExtent(t.width, dstLevel), mipExtent(t.height, dstLevel)
	if dstX+srcBox.Width > dstW || dstY+srcBox.Height > dstH {
		invariantViolation("CopySubPart destination region exceeds mip %d dimensions", dstLevel)
	}
	if srcBox.empty() {
		invariantViolation("CopySubPart source box must have strictly positive extents")
	}
	srcW, srcH := mipExtent(src.width, srcLevel), mipExtent(src.height, srcLevel)
	if srcBox.X+srcBox.Width > srcW || srcBox.Y+srcBox.Height > srcH {
		invariantViolation("CopySubPart source box exceeds source mip %d dimensions", srcLevel)
	}
	blockSize := format.BlockSize(t.format)
	if srcBox.Width%blockSize != 0 || srcBox.Height%blockSize != 0 {
		invariantViolation("CopySubPart box must be block-aligned to %d", blockSize)
	}
	return copyFn(t, dstLevel, dstX, dstY, src, srcLevel, srcBox)
}

func mipExtent(base, level uint32) uint32 {
	e := base >> level
	if e == 0 {
		e = 1
	}
	return e
}

// TextureCube extends Texture2D's shape with a fixed six-face count.
type TextureCube struct {
	Texture2D
}

// FaceCount is the fixed number of faces on a cube texture.
const FaceCount = 6

// NewTextureCube constructs an unfrozen cube texture description.
func NewTextureCube(f format.SurfaceFormatType, size, levelCount uint32, mode Mode, usage Usage, sharable bool) *TextureCube {
	base := NewTexture2D(ResourceTypeTextureCube, f, size, size, levelCount, mode, usage, sharable)
	return &TextureCube{Texture2D: *base}
}

// SizeInBytes sums the 2D per-level size over all six faces.
func (c *TextureCube) SizeInBytes() uint64 {
	return c.Texture2D.SizeInBytes() * FaceCount
}

// subResourceIndex returns the backend's linear sub-resource index for
// a cube texture: level + face × levelCount.
func (c *TextureCube) subResourceIndex(level uint32, face uint32) uint32 {
	return level + face*c.levelCount
}

// CopySubPart extends Texture2D.CopySubPart with a Face argument on
// both source and destination.
func (c *TextureCube) CopySubPart(dstLevel, dstFace, dstX, dstY uint32, src *TextureCube, srcLevel, srcFace uint32, srcBox Box, copyFn func(dst *TextureCube, dstLevel, dstFace, dstX, dstY uint32, src *TextureCube, srcLevel, srcFace uint32, srcBox Box) error) error {
	return c.Texture2D.CopySubPart(dstLevel, dstX, dstY, &src.Texture2D, srcLevel, srcBox,
		func(_ *Texture2D, dstLevel, dstX, dstY uint32, _ *Texture2D, srcLevel uint32, srcBox Box) error {
			return copyFn(c, dstLevel, dstFace, dstX, dstY, src, srcLevel, srcFace, srcBox)
		})
}

// RenderTarget is a Texture2D specialization requiring the format
// support RenderTarget capability.
type RenderTarget struct {
	Texture2D
}

// NewRenderTarget constructs a render-target texture. f must currently
// report SupportRenderTarget via the format package's backend-probed
// support bitmap.
func NewRenderTarget(f format.SurfaceFormatType, width, height uint32, mode Mode, usage Usage) *RenderTarget {
	if !format.SupportRenderTargetOK(f) {
		invariantViolation("format %d does not support render targets", f)
	}
	base := NewTexture2D(ResourceTypeRenderTarget, f, width, height, 1, mode, usage, false)
	return &RenderTarget{Texture2D: *base}
}

// DepthStencil is a Texture2D specialization requiring the format
// support DepthStencil capability.
type DepthStencil struct {
	Texture2D
}

// NewDepthStencil constructs a depth-stencil texture. f must currently
// report SupportDepthStencil via the format package's backend-probed
// support bitmap.
func NewDepthStencil(f format.SurfaceFormatType, width, height uint32, mode Mode, usage Usage) *DepthStencil {
	if !format.SupportDepthStencilOK(f) {
		invariantViolation("format %d does not support depth-stencil targets", f)
	}
	base := NewTexture2D(ResourceTypeDepthStencil, f, width, height, 1, mode, usage, false)
	return &DepthStencil{Texture2D: *base}
}
