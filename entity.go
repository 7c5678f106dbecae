package graphics

import "github.com/scenegrid/graphics/types"

// apiAndType packs the backend tag and the resource-type tag into one
// machine word, mirroring flagsAndType's shift/mask approach.
type apiAndType uint32

const (
	apiTagShift = 24
	apiTagMask  apiAndType = 0xFF << apiTagShift
	typeTagMask2 apiAndType = 1<<apiTagShift - 1
)

func packAPIAndType(backend types.Backend, rt ResourceType) apiAndType {
	return apiAndType(backend)<<apiTagShift&apiTagMask | apiAndType(rt)&typeTagMask2
}

func (a apiAndType) backend() types.Backend {
	return types.Backend((a & apiTagMask) >> apiTagShift)
}

func (a apiAndType) resourceType() ResourceType { return ResourceType(a & typeTagMask2) }

// terminalEntity is the backend-owned handle a resource description
// binds to when it becomes available on a device. It holds a
// non-owning back-reference to its owner — the back-reference is
// cleared explicitly on detach, breaking the resource/entity cyclic
// reference per the Design Notes.
type terminalEntity struct {
	apiAndType apiAndType
	owner      *DeviceResource
	createdAt  uint64
	lastUsed   uint64
	vramBytes  uint64
	backendObj any    // opaque handle owned by the active hal backend
	destroy    func() // releases backendObj through the backend that created it
}

// newTerminalEntity builds a terminal entity for backend/resourceType,
// with backendObj the opaque object returned by the backend's create
// call, vramBytes its constant, lifetime-long video-memory footprint,
// and destroy the backend-specific teardown closure (e.g. calling
// hal.Device.DestroyBuffer on backendObj).
func newTerminalEntity(backend types.Backend, rt ResourceType, backendObj any, vramBytes uint64, destroy func()) *terminalEntity {
	return &terminalEntity{
		apiAndType: packAPIAndType(backend, rt),
		backendObj: backendObj,
		vramBytes:  vramBytes,
		destroy:    destroy,
	}
}

// MatchDevice reports whether the entity's backend tag agrees with dev —
// spec invariant 2.
func (e *terminalEntity) MatchDevice(backend types.Backend) bool {
	return e.apiAndType.backend() == backend
}

// ResourceType returns the entity's resource-type tag.
func (e *terminalEntity) ResourceType() ResourceType { return e.apiAndType.resourceType() }

// VideoMemorySizeInBytes returns the entity's constant video-memory
// footprint, used by the shared-entity pool's byte accounting.
func (e *terminalEntity) VideoMemorySizeInBytes() uint64 { return e.vramBytes }

// BackendObject returns the opaque handle the active hal backend
// attached to this entity (a hal.Buffer, hal.Texture, ...).
func (e *terminalEntity) BackendObject() any { return e.backendObj }

// SetCreatedAt stamps the entity's creation revision. Called once from
// the backend's create path.
func (e *terminalEntity) SetCreatedAt(rev uint64) {
	e.createdAt = rev
	e.lastUsed = rev
}

// SetLastUsed stamps the entity's last-used revision. Updated on every
// bind through the device context.
func (e *terminalEntity) SetLastUsed(rev uint64) { e.lastUsed = rev }

// CreatedAt returns the entity's creation revision.
func (e *terminalEntity) CreatedAt() uint64 { return e.createdAt }

// LastUsed returns the entity's last-used revision.
func (e *terminalEntity) LastUsed() uint64 { return e.lastUsed }

// Destroy satisfies pool.Entity: it runs the backend-specific teardown
// closure installed at creation, then clears bookkeeping.
func (e *terminalEntity) Destroy() {
	if e.destroy != nil {
		e.destroy()
	}
	e.backendObj = nil
	e.vramBytes = 0
}
