package graphics

import (
	"github.com/scenegrid/graphics/format"
	"github.com/scenegrid/graphics/types"
)

// PresentInterval controls how Present synchronizes with the display's
// refresh cycle.
type PresentInterval uint8

const (
	PresentIntervalImmediate PresentInterval = iota
	PresentIntervalOne
	PresentIntervalTwo
	PresentIntervalThree
	PresentIntervalFour
)

// Viewport describes the device's active render viewport in pixels.
type Viewport struct {
	X, Y, Width, Height uint32
	MinDepth, MaxDepth  float32
}

// PresentationParameters configures a device at Create or Reset time —
// spec §6's configuration surface. It is a plain struct populated by the
// caller, matching the teacher's own InstanceDescriptor/DeviceDescriptor
// construction style.
type PresentationParameters struct {
	Width, Height       uint32
	BackBufferFormat    format.SurfaceFormatType // must carry format.RGB|format.Depth... per field
	DepthStencilFormat  format.SurfaceFormatType
	Fullscreen          bool
	TripleBuffer        bool
	MultiSampleCount    uint32
	PresentInterval     PresentInterval
	Viewport            Viewport
	WindowHandle        uintptr
	DisplayHandle       uintptr
}

// validate checks the format/capability requirements spec §6 names for
// the back-buffer and depth-stencil formats.
func (pp *PresentationParameters) validate() error {
	if pp.BackBufferFormat != format.Unknown && !format.Has(pp.BackBufferFormat, format.RGB) {
		invariantViolation("back-buffer format must carry the RGB capability")
	}
	if pp.DepthStencilFormat != format.Unknown && !format.Has(pp.DepthStencilFormat, format.Depth) {
		invariantViolation("depth-stencil format must carry the Depth capability")
	}
	return nil
}

// backendSlot names which of the two reserved backend slots (primary
// DirectX-class, secondary OpenGL-class) a types.Backend plays, per
// spec §1's "DirectX 11 primary, OpenGL-class secondary" framing. Every
// other types.Backend value (including BackendEmpty, which the noop hal
// backend reports) is "unassigned".
func backendSlot(b types.Backend) string {
	switch b {
	case types.BackendDX12:
		return "primary"
	case types.BackendGL:
		return "secondary"
	default:
		return "unassigned"
	}
}
