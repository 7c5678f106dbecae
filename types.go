package graphics

import "github.com/scenegrid/graphics/pool"

// ResourceType tags the concrete kind of a DeviceResource. It is shared
// with the pool package's pool.ResourceType so a resource's pool key can
// be derived without a translation table.
type ResourceType = pool.ResourceType

const (
	ResourceTypeInvalid           = pool.ResourceTypeInvalid
	ResourceTypeConstants         = pool.ResourceTypeConstants
	ResourceTypeIndices           = pool.ResourceTypeIndices
	ResourceTypeVertices          = pool.ResourceTypeVertices
	ResourceTypeRenderTarget      = pool.ResourceTypeRenderTarget
	ResourceTypeDepthStencil      = pool.ResourceTypeDepthStencil
	ResourceTypeTexture2D         = pool.ResourceTypeTexture2D
	ResourceTypeTextureCube       = pool.ResourceTypeTextureCube
	ResourceTypeShaderEffect      = pool.ResourceTypeShaderEffect
	ResourceTypeShaderProgram     = pool.ResourceTypeShaderProgram
	ResourceTypeBlendState        = pool.ResourceTypeBlendState
	ResourceTypeRasterizerState   = pool.ResourceTypeRasterizerState
	ResourceTypeDepthStencilState = pool.ResourceTypeDepthStencilState
	ResourceTypeSamplerState      = pool.ResourceTypeSamplerState
	ResourceTypeVertexDeclaration = pool.ResourceTypeVertexDeclaration
)

// Mode controls a buffer or texture's expected update cadence.
type Mode uint8

const (
	ModeDefault Mode = iota
	ModeImmutable
	ModeDynamic
	ModeStaging
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "Default"
	case ModeImmutable:
		return "Immutable"
	case ModeDynamic:
		return "Dynamic"
	case ModeStaging:
		return "Staging"
	default:
		return "Mode(?)"
	}
}

// Usage controls CPU read/write access to a buffer or texture.
type Usage uint8

const (
	UsageNone Usage = iota
	UsageWrite
	UsageRead
	UsageReadWrite
	UsageWriteDiscard
	UsageWriteNoOverwrite
)

func (u Usage) String() string {
	switch u {
	case UsageNone:
		return "None"
	case UsageWrite:
		return "Write"
	case UsageRead:
		return "Read"
	case UsageReadWrite:
		return "ReadWrite"
	case UsageWriteDiscard:
		return "WriteDiscard"
	case UsageWriteNoOverwrite:
		return "WriteNoOverwrite"
	default:
		return "Usage(?)"
	}
}

// modeUsageOK is the mode×usage compatibility matrix from spec §3.
var modeUsageOK = map[Mode]map[Usage]bool{
	ModeDefault: {
		UsageNone: true, UsageWrite: true,
	},
	ModeImmutable: {
		UsageNone: true,
	},
	ModeDynamic: {
		UsageWrite: true, UsageWriteDiscard: true, UsageWriteNoOverwrite: true,
	},
	ModeStaging: {
		UsageWrite: true, UsageRead: true, UsageReadWrite: true,
	},
}

// ModeUsageAllowed reports whether (mode, usage) is a legal combination
// for a resource buffer or texture.
func ModeUsageAllowed(mode Mode, usage Usage) bool {
	row, ok := modeUsageOK[mode]
	if !ok {
		return false
	}
	return row[usage]
}

// PrimitiveTopology enumerates the draw-call primitive assemblies the
// device encapsulator's Draw dispatch recognizes. Recovered from
// original_source's PrimitiveType, which spec.md folds into "draw calls
// route through L" without naming the enum explicitly.
type PrimitiveTopology uint8

const (
	PrimitiveTopologyPointList PrimitiveTopology = iota
	PrimitiveTopologyLineList
	PrimitiveTopologyLineStrip
	PrimitiveTopologyTriangleList
	PrimitiveTopologyTriangleStrip
)
