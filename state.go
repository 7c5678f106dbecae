package graphics

import "github.com/scenegrid/graphics/pool"

// BlendFactor names a blend equation operand.
type BlendFactor uint8

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorInvSrcAlpha
	BlendFactorDestAlpha
	BlendFactorInvDestAlpha
	BlendFactorSrcColor
	BlendFactorInvSrcColor
)

// BlendOp names a blend combine operation.
type BlendOp uint8

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
	BlendOpRevSubtract
	BlendOpMin
	BlendOpMax
)

// BlendState is a small, immutable state block (component K). Like the
// other state blocks it is sharable: equal field values fold to the
// same pool key and may reuse one backend object.
type BlendState struct {
	DeviceResource
	Enabled    bool
	SrcFactor  BlendFactor
	DstFactor  BlendFactor
	Op         BlendOp
	SrcAlpha   BlendFactor
	DstAlpha   BlendFactor
	AlphaOp    BlendOp
	WriteMaskR bool
	WriteMaskG bool
	WriteMaskB bool
	WriteMaskA bool
}

// NewBlendState constructs an unfrozen blend state with the given
// fields.
func NewBlendState(enabled bool, src, dst BlendFactor, op BlendOp, srcA, dstA BlendFactor, alphaOp BlendOp) *BlendState {
	return &BlendState{
		DeviceResource: newDeviceResource(ResourceTypeBlendState, true),
		Enabled:        enabled,
		SrcFactor:      src,
		DstFactor:      dst,
		Op:             op,
		SrcAlpha:       srcA,
		DstAlpha:       dstA,
		AlphaOp:        alphaOp,
		WriteMaskR:     true,
		WriteMaskG:     true,
		WriteMaskB:     true,
		WriteMaskA:     true,
	}
}

// PoolKey derives this blend state's shared-entity pool key from its
// field values.
func (s *BlendState) PoolKey() pool.Key {
	h := fnvOffset
	h = fnvMix(h, uint64(s.ResourceType()))
	h = fnvMix(h, boolBit(s.Enabled))
	h = fnvMix(h, uint64(s.SrcFactor))
	h = fnvMix(h, uint64(s.DstFactor))
	h = fnvMix(h, uint64(s.Op))
	h = fnvMix(h, uint64(s.SrcAlpha))
	h = fnvMix(h, uint64(s.DstAlpha))
	h = fnvMix(h, uint64(s.AlphaOp))
	h = fnvMix(h, boolBit(s.WriteMaskR)<<3|boolBit(s.WriteMaskG)<<2|boolBit(s.WriteMaskB)<<1|boolBit(s.WriteMaskA))
	return pool.NewKey(s.ResourceType(), h)
}

// BlendOpaque is the built-in disabled-blend state: write-through.
func BlendOpaque() *BlendState {
	return NewBlendState(false, BlendFactorOne, BlendFactorZero, BlendOpAdd, BlendFactorOne, BlendFactorZero, BlendOpAdd)
}

// BlendAlpha is the built-in standard alpha-blend state.
func BlendAlpha() *BlendState {
	return NewBlendState(true, BlendFactorSrcAlpha, BlendFactorInvSrcAlpha, BlendOpAdd, BlendFactorOne, BlendFactorInvSrcAlpha, BlendOpAdd)
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// CullMode names a rasterizer face-culling mode.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// FillMode names a rasterizer polygon fill mode.
type FillMode uint8

const (
	FillSolid FillMode = iota
	FillWireframe
)

// RasterizerState is a small, immutable state block (component K).
type RasterizerState struct {
	DeviceResource
	Cull           CullMode
	Fill           FillMode
	FrontCCW       bool
	DepthBias      float32
	ScissorEnabled bool
}

// NewRasterizerState constructs an unfrozen rasterizer state.
func NewRasterizerState(cull CullMode, fill FillMode, frontCCW bool) *RasterizerState {
	return &RasterizerState{
		DeviceResource: newDeviceResource(ResourceTypeRasterizerState, true),
		Cull:           cull,
		Fill:           fill,
		FrontCCW:       frontCCW,
	}
}

// PoolKey derives this rasterizer state's shared-entity pool key.
func (s *RasterizerState) PoolKey() pool.Key {
	h := fnvOffset
	h = fnvMix(h, uint64(s.ResourceType()))
	h = fnvMix(h, uint64(s.Cull))
	h = fnvMix(h, uint64(s.Fill))
	h = fnvMix(h, boolBit(s.FrontCCW))
	h = fnvMix(h, uint64(s.DepthBias))
	h = fnvMix(h, boolBit(s.ScissorEnabled))
	return pool.NewKey(s.ResourceType(), h)
}

// RasterizerDefault is the built-in solid-fill, back-face-cull state.
func RasterizerDefault() *RasterizerState {
	return NewRasterizerState(CullBack, FillSolid, false)
}

// CompareFunc names a depth/stencil comparison function.
type CompareFunc uint8

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// DepthStencilState is a small, immutable state block (component K).
type DepthStencilState struct {
	DeviceResource
	DepthEnabled bool
	DepthWrite   bool
	DepthFunc    CompareFunc
	StencilEnabled bool
	StencilFunc    CompareFunc
	StencilRef     uint8
}

// NewDepthStencilState constructs an unfrozen depth-stencil state.
func NewDepthStencilState(depthEnabled, depthWrite bool, depthFunc CompareFunc) *DepthStencilState {
	return &DepthStencilState{
		DeviceResource: newDeviceResource(ResourceTypeDepthStencilState, true),
		DepthEnabled:   depthEnabled,
		DepthWrite:     depthWrite,
		DepthFunc:      depthFunc,
	}
}

// PoolKey derives this depth-stencil state's shared-entity pool key.
func (s *DepthStencilState) PoolKey() pool.Key {
	h := fnvOffset
	h = fnvMix(h, uint64(s.ResourceType()))
	h = fnvMix(h, boolBit(s.DepthEnabled))
	h = fnvMix(h, boolBit(s.DepthWrite))
	h = fnvMix(h, uint64(s.DepthFunc))
	h = fnvMix(h, boolBit(s.StencilEnabled))
	h = fnvMix(h, uint64(s.StencilFunc))
	h = fnvMix(h, uint64(s.StencilRef))
	return pool.NewKey(s.ResourceType(), h)
}

// DepthStencilDefault is the built-in standard depth-test-and-write state.
func DepthStencilDefault() *DepthStencilState {
	return NewDepthStencilState(true, true, CompareLessEqual)
}

// FilterMode names a sampler texture-filtering mode.
type FilterMode uint8

const (
	FilterPoint FilterMode = iota
	FilterLinear
	FilterAnisotropic
)

// AddressMode names a sampler texture-coordinate wrap mode.
type AddressMode uint8

const (
	AddressWrap AddressMode = iota
	AddressClamp
	AddressMirror
	AddressBorder
)

// SamplerState is a small, immutable state block (component K).
type SamplerState struct {
	DeviceResource
	Filter    FilterMode
	AddressU  AddressMode
	AddressV  AddressMode
	AddressW  AddressMode
	MaxAniso  uint8
}

// NewSamplerState constructs an unfrozen sampler state.
func NewSamplerState(filter FilterMode, addressU, addressV, addressW AddressMode) *SamplerState {
	return &SamplerState{
		DeviceResource: newDeviceResource(ResourceTypeSamplerState, true),
		Filter:         filter,
		AddressU:       addressU,
		AddressV:       addressV,
		AddressW:       addressW,
		MaxAniso:       1,
	}
}

// PoolKey derives this sampler state's shared-entity pool key.
func (s *SamplerState) PoolKey() pool.Key {
	h := fnvOffset
	h = fnvMix(h, uint64(s.ResourceType()))
	h = fnvMix(h, uint64(s.Filter))
	h = fnvMix(h, uint64(s.AddressU))
	h = fnvMix(h, uint64(s.AddressV))
	h = fnvMix(h, uint64(s.AddressW))
	h = fnvMix(h, uint64(s.MaxAniso))
	return pool.NewKey(s.ResourceType(), h)
}

// SamplerLinearWrap is the built-in bilinear, wrap-addressed sampler.
func SamplerLinearWrap() *SamplerState {
	return NewSamplerState(FilterLinear, AddressWrap, AddressWrap, AddressWrap)
}

// SamplerPointClamp is the built-in point-filtered, clamp-addressed
// sampler.
func SamplerPointClamp() *SamplerState {
	return NewSamplerState(FilterPoint, AddressClamp, AddressClamp, AddressClamp)
}

// createStateEntity attaches a terminal entity to a state block, acquiring a
// parked, equivalent one from the shared-entity pool when available.
// All four state block types share this creation path since none
// require resource-type-specific create descriptors beyond the struct
// itself.
func createStateEntity(enc *DeviceEncapsulator, r *DeviceResource, m pool.Matcher, desc any) error {
	r.checkThread()
	r.checkFrozen()

	if ent, hit := enc.Pool().AcquireExclusive(m); hit {
		r.attachEntity(ent.(*terminalEntity))
		r.entity.SetCreatedAt(enc.Revision())
		return nil
	}
	result, err := enc.encAPI.CreateResource(r.ResourceType(), desc)
	if err != nil {
		return &DeviceEncapsulatorException{Backend: enc.Backend().String(), Resource: r, Err: err}
	}
	ent := newTerminalEntity(enc.Backend(), r.ResourceType(), result.BackendObject, result.VideoMemoryBytes, result.Destroy)
	r.attachEntity(ent)
	ent.SetCreatedAt(enc.Revision())
	return nil
}

func destroyStateEntity(enc *DeviceEncapsulator, r *DeviceResource, key pool.Key) {
	r.checkThread()
	ent := r.detachEntity()
	enc.Pool().ReleaseExclusive(key, ent)
}

// Create attaches a terminal entity to s.
func (s *BlendState) Create(enc *DeviceEncapsulator) error {
	return createStateEntity(enc, &s.DeviceResource, s, *s)
}

// Destroy yields s's terminal entity back to the shared-entity pool.
func (s *BlendState) Destroy(enc *DeviceEncapsulator) { destroyStateEntity(enc, &s.DeviceResource, s.PoolKey()) }

// Create attaches a terminal entity to s.
func (s *RasterizerState) Create(enc *DeviceEncapsulator) error {
	return createStateEntity(enc, &s.DeviceResource, s, *s)
}

// Destroy yields s's terminal entity back to the shared-entity pool.
func (s *RasterizerState) Destroy(enc *DeviceEncapsulator) {
	destroyStateEntity(enc, &s.DeviceResource, s.PoolKey())
}

// Create attaches a terminal entity to s.
func (s *DepthStencilState) Create(enc *DeviceEncapsulator) error {
	return createStateEntity(enc, &s.DeviceResource, s, *s)
}

// Destroy yields s's terminal entity back to the shared-entity pool.
func (s *DepthStencilState) Destroy(enc *DeviceEncapsulator) {
	destroyStateEntity(enc, &s.DeviceResource, s.PoolKey())
}

// Create attaches a terminal entity to s.
func (s *SamplerState) Create(enc *DeviceEncapsulator) error {
	return createStateEntity(enc, &s.DeviceResource, s, *s)
}

// Destroy yields s's terminal entity back to the shared-entity pool.
func (s *SamplerState) Destroy(enc *DeviceEncapsulator) {
	destroyStateEntity(enc, &s.DeviceResource, s.PoolKey())
}
