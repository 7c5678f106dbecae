// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package allbackends imports every HAL backend implementation this
// module carries for side-effect registration:
//
//	import (
//		_ "github.com/scenegrid/graphics/hal/allbackends"
//	)
//
// This currently registers the no-op backend only (hal/noop,
// types.BackendEmpty) — the one backend in this tree with no native
// driver dependency, suitable for exercising the device/resource
// lifecycle without GPU hardware. Native backends (Vulkan, Metal,
// DX12, GLES) are not carried in this module; wiring one in means
// adding its package here behind the same side-effect-import pattern.
//
// After importing, use hal.GetBackend or hal.AvailableBackends to
// access registered backends.
package allbackends
