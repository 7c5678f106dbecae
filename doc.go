// Package graphics provides the graphics resource and device abstraction
// core of a real-time rendering engine: the resource lifecycle
// (create/freeze/bind/use/destroy), the API-neutral-description ↔
// API-dependent-terminal-entity split, content-addressed resource
// sharing via a pooled/LRU cache, the buffer/texture sub-systems, the
// vertex-declaration registry, shader programs and effects, state
// blocks, and the device encapsulator that ties them together.
//
// # Resource lifecycle
//
// A resource is built, optionally configured, frozen, and submitted to
// a DeviceEncapsulator. Freezing is one-way; only frozen resources may
// be bound to a device. Binding produces a terminal entity (a
// backend-owned handle) which the resource holds until it is detached
// or the resource is destroyed.
//
// # Thread affinity
//
// Every DeviceResource and the DeviceEncapsulator that owns it record
// the goroutine/owner-thread identity at construction and assert it on
// every public call; the core does not lock because it is single
// threaded per device by design (see DESIGN.md).
//
// # Backend registration
//
// DeviceEncapsulator.Create receives the active backend as a
// types.Backend value together with the three backend contracts
// (IDeviceAPIEncapsulator, IDeviceAPIContext, IDeviceAPIShaderCompiler).
// NewHALEncapsulator adapts an opened hal.Device/hal.Queue pair to the
// first of them. The only hal backend in this module is noop, registered
// by a blank import of hal/noop or hal/allbackends.
package graphics
