package graphics

// flagsAndType packs the freeze bit and the resource-type tag into one
// machine word, per the Design Notes' "packed bit-fields" guidance:
// explicit shift/mask rather than a templated bit-range helper.
type flagsAndType uint32

const (
	flagFrozen  flagsAndType = 1 << 31
	typeTagMask flagsAndType = 1<<31 - 1
)

func packFlagsAndType(frozen bool, rt ResourceType) flagsAndType {
	v := flagsAndType(rt) & typeTagMask
	if frozen {
		v |= flagFrozen
	}
	return v
}

func (f flagsAndType) frozen() bool        { return f&flagFrozen != 0 }
func (f flagsAndType) resourceType() ResourceType { return ResourceType(f & typeTagMask) }

// deviceLifecycleHooks is implemented by every concrete resource variant
// to receive the encapsulator's device-transition events. It replaces
// the teacher-domain's virtual OnDevice*Impl hooks with static dispatch
// on an interface, per the Design Notes' "deep class hierarchies"
// guidance.
type deviceLifecycleHooks interface {
	onDeviceCreate(enc *DeviceEncapsulator) error
	onDeviceReset(enc *DeviceEncapsulator) error
	onDeviceLost(enc *DeviceEncapsulator)
	onDeviceDestroy(enc *DeviceEncapsulator)
}

// DeviceResource is the abstract base embedded by every concrete
// resource kind (ResourceBuffer, Texture2D, ShaderEffect, state blocks,
// VertexDeclaration, ...). It holds the freeze latch, the owner-thread
// identity, the resource-type tag, an optional debug name, the sharable
// bit, and the attached terminal entity.
//
// Every public method on a concrete resource must call checkThread and
// every mutator must call checkNotFrozen before touching resource state;
// see buffer.go/texture.go for the pattern.
type DeviceResource struct {
	flagsAndType flagsAndType
	ownerThread  uint64
	debugName    string
	sharable     bool
	entity       *terminalEntity
}

// newDeviceResource initializes the base for a concrete resource,
// recording the constructing goroutine as the owner thread.
func newDeviceResource(rt ResourceType, sharable bool) DeviceResource {
	return DeviceResource{
		flagsAndType: packFlagsAndType(false, rt),
		ownerThread:  goroutineID(),
		sharable:     sharable,
	}
}

// ResourceType returns the resource's type tag.
func (r *DeviceResource) ResourceType() ResourceType { return r.flagsAndType.resourceType() }

// Frozen reports whether Freeze has been called.
func (r *DeviceResource) Frozen() bool { return r.flagsAndType.frozen() }

// Sharable reports whether this resource's terminal entity may be
// reused across equivalent resources through the shared-entity pool.
func (r *DeviceResource) Sharable() bool { return r.sharable }

// DebugName returns the resource's optional debug name.
func (r *DeviceResource) DebugName() string { return r.debugName }

// SetDebugName sets the resource's optional debug name. Like any other
// mutator, it is forbidden once the resource is frozen.
func (r *DeviceResource) SetDebugName(name string) {
	r.checkThread()
	r.checkNotFrozen()
	r.debugName = name
}

// Available reports whether a terminal entity is currently attached —
// spec invariant 1: Available() ⇔ terminal-entity ≠ null.
func (r *DeviceResource) Available() bool {
	r.checkThread()
	return r.entity != nil
}

// Freeze latches the resource. Freezing twice is a precondition
// violation, not a silent no-op — spec §4.C calls it "idempotent-forbidden".
func (r *DeviceResource) Freeze() {
	r.checkThread()
	if r.flagsAndType.frozen() {
		invariantViolation("Freeze called twice on resource %q", r.debugName)
	}
	r.flagsAndType |= flagFrozen
}

// Unfreeze clears the freeze latch. It exists only for teardown corner
// cases (spec §4.C) and must never be called while a terminal entity is
// attached.
func (r *DeviceResource) Unfreeze() {
	r.checkThread()
	if r.entity != nil {
		invariantViolation("Unfreeze called while a terminal entity is still attached")
	}
	r.flagsAndType &^= flagFrozen
}

// checkThread asserts the calling goroutine matches the resource's
// owner thread — spec §4.C invariant (iii).
func (r *DeviceResource) checkThread() {
	if id := goroutineID(); id != 0 && r.ownerThread != 0 && id != r.ownerThread {
		invariantViolation("resource %q accessed from goroutine %d, owned by goroutine %d", r.debugName, id, r.ownerThread)
	}
}

// checkNotFrozen asserts the resource has not yet been frozen — spec
// §4.C invariant (i): every mutator asserts !frozen.
func (r *DeviceResource) checkNotFrozen() {
	if r.flagsAndType.frozen() {
		invariantViolation("mutator called on frozen resource %q", r.debugName)
	}
}

// checkFrozen asserts the resource has been frozen — the precondition
// for device binding (spec §4.C invariant (ii)).
func (r *DeviceResource) checkFrozen() {
	if !r.flagsAndType.frozen() {
		invariantViolation("device-binding operation called on unfrozen resource %q", r.debugName)
	}
}

// attachEntity installs ent as this resource's terminal entity. Requires
// the resource be frozen and not yet available — spec §4.D invariant (ii).
func (r *DeviceResource) attachEntity(ent *terminalEntity) {
	r.checkFrozen()
	if r.entity != nil {
		invariantViolation("AttachResource called while a terminal entity is already attached")
	}
	ent.owner = r
	r.entity = ent
}

// detachEntity removes and returns this resource's terminal entity,
// clearing the entity's back-reference. Requires the resource be frozen
// and available — spec §4.D invariant (iii).
func (r *DeviceResource) detachEntity() *terminalEntity {
	r.checkFrozen()
	if r.entity == nil {
		invariantViolation("DetachResource called with no terminal entity attached")
	}
	ent := r.entity
	ent.owner = nil
	r.entity = nil
	return ent
}

// Entity returns the attached terminal entity, or nil if unavailable.
func (r *DeviceResource) Entity() *terminalEntity { return r.entity }
