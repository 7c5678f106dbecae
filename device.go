package graphics

import (
	"log/slog"

	"github.com/scenegrid/graphics/hal"
	"github.com/scenegrid/graphics/internal/thread"
	"github.com/scenegrid/graphics/pool"
	"github.com/scenegrid/graphics/types"
)

// DeviceState is one state of the device encapsulator's state machine
// (spec §4.L). Invalid is both the initial and the terminal state.
type DeviceState uint8

const (
	DeviceStateInvalid DeviceState = iota
	DeviceStateCreate
	DeviceStateNormal
	DeviceStateReset
	DeviceStateDestroy
	// DeviceStateLost is reserved for backend-reported device removal.
	// No transition in this implementation enters it.
	DeviceStateLost
)

func (s DeviceState) String() string {
	switch s {
	case DeviceStateInvalid:
		return "Invalid"
	case DeviceStateCreate:
		return "Create"
	case DeviceStateNormal:
		return "Normal"
	case DeviceStateReset:
		return "Reset"
	case DeviceStateDestroy:
		return "Destroy"
	case DeviceStateLost:
		return "Lost"
	default:
		return "DeviceState(?)"
	}
}

// ResourceCreateResult is returned by IDeviceAPIEncapsulator.CreateResource:
// the opaque backend handle plus the entity's constant video-memory
// footprint and a teardown closure that releases it.
type ResourceCreateResult struct {
	BackendObject    any
	VideoMemoryBytes uint64
	Destroy          func()
}

// IDeviceAPIEncapsulator is the backend contract for resource creation,
// destruction, and render-state set calls (spec §6). One object per
// device implements this; halEncapsulator in backend_hal.go is the
// implementation over a hal.Device.
type IDeviceAPIEncapsulator interface {
	CreateResource(rt ResourceType, desc any) (ResourceCreateResult, error)
	DestroyResource(rt ResourceType, backendObj any)
	SetRenderTargets(colors []*RenderTarget, depthStencil *DepthStencil) error
	Clear(colors []*RenderTarget, color [4]float32, depthStencil *DepthStencil, clearDepth bool, depth float32, clearStencil bool, stencil uint8) error
}

// IDeviceAPIContext is the backend contract for binding resources and
// issuing draw calls (spec §6).
type IDeviceAPIContext interface {
	BindResource(rt ResourceType, slot int, entity *terminalEntity) error
	Draw(topology PrimitiveTopology, vertexCount, startVertex uint32) error
	DrawIndexed(topology PrimitiveTopology, indexCount, startIndex uint32, baseVertex int32) error
}

// IDeviceAPIShaderCompiler is the backend contract for shader
// compilation, preprocessing, and reflection (spec §6).
type IDeviceAPIShaderCompiler interface {
	Preprocess(source string, defines map[string]string) (string, error)
	Compile(source string, stage ShaderStage, profile string) ([]byte, error)
	Reflect(blob []byte) (ShaderReflection, error)
}

// deviceEvent names the four events the encapsulator publishes —
// resources subscribe in order to re-create their terminal entities
// across device transitions.
type deviceEvent uint8

const (
	eventOnDeviceCreate deviceEvent = iota
	eventOnDeviceDestroy
	eventOnDeviceReset
	eventOnDevicePresent
)

// DeviceEncapsulator is the thread-owned façade described by spec §4.L:
// it validates every operation against the current state machine,
// stamps entities with a monotonic revision, and dispatches to the
// active backend.
type DeviceEncapsulator struct {
	ownerThread uint64
	state       DeviceState
	backend     types.Backend
	revision    uint64
	pp          PresentationParameters

	encAPI   IDeviceAPIEncapsulator
	ctxAPI   IDeviceAPIContext
	compiler IDeviceAPIShaderCompiler

	pool *pool.Pool

	listeners []deviceLifecycleHooks
}

// NewDeviceEncapsulator builds an encapsulator in DeviceStateInvalid,
// recording the constructing goroutine as its owner thread.
func NewDeviceEncapsulator() *DeviceEncapsulator {
	return &DeviceEncapsulator{
		ownerThread: goroutineID(),
		state:       DeviceStateInvalid,
		pool:        pool.New(),
	}
}

// NewDeviceEncapsulatorOnThread builds an encapsulator owned by a
// dedicated, OS-thread-locked render thread rather than the calling
// goroutine. It hands back the encapsulator and the thread.Thread that
// owns it; every subsequent call into enc must be routed through
// th.Call/th.CallVoid so it runs on the goroutine checkThread records
// below, matching the single-thread-per-device assertion every other
// DeviceResource and DeviceEncapsulator method already makes via
// goroutineID(). This is the escape hatch for hosts that, like the
// render/main-thread split thread.Thread's own doc comment describes,
// keep GPU operations off whatever goroutine owns windowing or input.
func NewDeviceEncapsulatorOnThread() (*DeviceEncapsulator, *thread.Thread) {
	th := thread.New()
	enc := th.Call(func() any {
		return &DeviceEncapsulator{
			ownerThread: goroutineID(),
			state:       DeviceStateInvalid,
			pool:        pool.New(),
		}
	}).(*DeviceEncapsulator)
	return enc, th
}

func (enc *DeviceEncapsulator) checkThread() {
	if id := goroutineID(); id != 0 && enc.ownerThread != 0 && id != enc.ownerThread {
		invariantViolation("device encapsulator accessed from goroutine %d, owned by goroutine %d", id, enc.ownerThread)
	}
}

func (enc *DeviceEncapsulator) checkState(want DeviceState) {
	if enc.state != want {
		invariantViolation("device encapsulator in state %s, expected %s", enc.state, want)
	}
}

// State returns the current state-machine state.
func (enc *DeviceEncapsulator) State() DeviceState { return enc.state }

// Revision returns the current monotonic device revision.
func (enc *DeviceEncapsulator) Revision() uint64 { return enc.revision }

// Backend returns the active backend tag.
func (enc *DeviceEncapsulator) Backend() types.Backend { return enc.backend }

// Pool returns the shared-entity pool owned by this encapsulator.
func (enc *DeviceEncapsulator) Pool() *pool.Pool { return enc.pool }

// Register subscribes a resource to this encapsulator's device-lifecycle
// events.
func (enc *DeviceEncapsulator) Register(hooks deviceLifecycleHooks) {
	enc.listeners = append(enc.listeners, hooks)
}

// Unregister removes a resource from the device-lifecycle subscriber
// list, e.g. on resource destruction.
func (enc *DeviceEncapsulator) Unregister(hooks deviceLifecycleHooks) {
	for i, l := range enc.listeners {
		if l == hooks {
			enc.listeners = append(enc.listeners[:i], enc.listeners[i+1:]...)
			return
		}
	}
}

func (enc *DeviceEncapsulator) publish(ev deviceEvent) {
	for _, l := range enc.listeners {
		switch ev {
		case eventOnDeviceCreate:
			if err := l.onDeviceCreate(enc); err != nil {
				hal.Logger().Error("onDeviceCreate failed", slog.Any("err", err))
			}
		case eventOnDeviceReset:
			if err := l.onDeviceReset(enc); err != nil {
				hal.Logger().Error("onDeviceReset failed", slog.Any("err", err))
			}
		case eventOnDeviceDestroy:
			l.onDeviceDestroy(enc)
		case eventOnDevicePresent:
			// Present carries no per-resource hook in spec §4.L beyond the
			// revision bump applied by Present itself.
		}
	}
}

// Create transitions Invalid -> Create -> Normal, binding the given
// backend contract implementations and presentation parameters.
func (enc *DeviceEncapsulator) Create(backend types.Backend, encAPI IDeviceAPIEncapsulator, ctxAPI IDeviceAPIContext, compiler IDeviceAPIShaderCompiler, pp PresentationParameters) error {
	enc.checkThread()
	enc.checkState(DeviceStateInvalid)
	if err := pp.validate(); err != nil {
		return err
	}

	enc.state = DeviceStateCreate
	enc.backend = backend
	enc.encAPI = encAPI
	enc.ctxAPI = ctxAPI
	enc.compiler = compiler
	enc.pp = pp
	enc.revision = 0

	hal.Logger().Info("device create", slog.String("backend", backend.String()), slog.String("slot", backendSlot(backend)))
	enc.publish(eventOnDeviceCreate)
	enc.state = DeviceStateNormal
	return nil
}

// Reset transitions Normal -> Reset -> Invalid, resetting the revision
// counter to zero. Per spec §4.L, resources subscribed to
// OnDeviceReset should re-create their terminal entities rather than
// assume the device survives.
func (enc *DeviceEncapsulator) Reset(pp PresentationParameters) error {
	enc.checkThread()
	enc.checkState(DeviceStateNormal)
	if err := pp.validate(); err != nil {
		return err
	}

	enc.state = DeviceStateReset
	enc.pp = pp
	enc.publish(eventOnDeviceReset)
	enc.revision = 0
	enc.state = DeviceStateInvalid
	return nil
}

// Destroy transitions Normal -> Destroy -> Invalid. Per spec's lifecycle
// ownership rule, this requires the shared-entity pool hold no locked
// records; ReleaseAll enforces that.
func (enc *DeviceEncapsulator) Destroy() {
	enc.checkThread()
	enc.checkState(DeviceStateNormal)

	enc.state = DeviceStateDestroy
	enc.publish(eventOnDeviceDestroy)
	enc.pool.ReleaseAll()
	hal.Logger().Info("device destroy", slog.String("backend", enc.backend.String()))
	enc.state = DeviceStateInvalid
}

// Present advances the monotonic revision counter by one. It is the
// only transition that keeps the encapsulator in DeviceStateNormal.
func (enc *DeviceEncapsulator) Present() {
	enc.checkThread()
	enc.checkState(DeviceStateNormal)
	enc.revision++
	enc.publish(eventOnDevicePresent)
}

// SetRenderTargets binds zero or more color targets and an optional
// depth-stencil, stamping each bound resource's lastUsed to the current
// revision before dispatch — spec §4.L: "Bind operations update
// lastUsed = revision on each bound resource before dispatch."
func (enc *DeviceEncapsulator) SetRenderTargets(colors []*RenderTarget, depthStencil *DepthStencil) error {
	enc.checkThread()
	enc.checkState(DeviceStateNormal)
	for _, rt := range colors {
		enc.stampLastUsed(rt.Entity())
	}
	if depthStencil != nil {
		enc.stampLastUsed(depthStencil.Entity())
	}
	if err := enc.encAPI.SetRenderTargets(colors, depthStencil); err != nil {
		return &DeviceEncapsulatorException{Backend: enc.backend.String(), Err: err}
	}
	return nil
}

func (enc *DeviceEncapsulator) stampLastUsed(ent *terminalEntity) {
	if ent != nil {
		ent.SetLastUsed(enc.revision)
	}
}

// Clear routes a color and/or depth-stencil clear to the backend. Clear
// operations, unlike binds, do not stamp lastUsed (spec §4.L).
func (enc *DeviceEncapsulator) Clear(colors []*RenderTarget, color [4]float32, depthStencil *DepthStencil, clearDepth bool, depth float32, clearStencil bool, stencil uint8) error {
	enc.checkThread()
	enc.checkState(DeviceStateNormal)
	if err := enc.encAPI.Clear(colors, color, depthStencil, clearDepth, depth, clearStencil, stencil); err != nil {
		return &DeviceEncapsulatorException{Backend: enc.backend.String(), Err: err}
	}
	return nil
}

// bindForDraw validates a resource is frozen and available, stamps its
// lastUsed, and dispatches a bind to the backend context.
func (enc *DeviceEncapsulator) bindForDraw(r *DeviceResource, slot int) error {
	if !r.Frozen() || !r.Available() {
		invariantViolation("resource %q must be frozen and available to bind", r.DebugName())
	}
	enc.stampLastUsed(r.entity)
	if err := enc.ctxAPI.BindResource(r.ResourceType(), slot, r.entity); err != nil {
		return &DeviceEncapsulatorException{Backend: enc.backend.String(), Resource: r, Err: err}
	}
	return nil
}

// Draw issues a non-indexed draw call. Draw calls do not stamp lastUsed
// on their own (only binds do); the resources referenced by the active
// vertex/shader bindings must already have been bound via SetRenderTargets
// or an explicit BindResource call.
func (enc *DeviceEncapsulator) Draw(topology PrimitiveTopology, vertexCount, startVertex uint32) error {
	enc.checkThread()
	enc.checkState(DeviceStateNormal)
	if err := enc.ctxAPI.Draw(topology, vertexCount, startVertex); err != nil {
		return &DeviceEncapsulatorException{Backend: enc.backend.String(), Err: err}
	}
	return nil
}

// DrawIndexed issues an indexed draw call.
func (enc *DeviceEncapsulator) DrawIndexed(topology PrimitiveTopology, indexCount, startIndex uint32, baseVertex int32) error {
	enc.checkThread()
	enc.checkState(DeviceStateNormal)
	if err := enc.ctxAPI.DrawIndexed(topology, indexCount, startIndex, baseVertex); err != nil {
		return &DeviceEncapsulatorException{Backend: enc.backend.String(), Err: err}
	}
	return nil
}
