package noop

import "github.com/scenegrid/graphics/hal"

// init registers the noop backend with the HAL registry.
func init() {
	hal.RegisterBackend(API{})
}
