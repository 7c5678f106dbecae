package graphics

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/scenegrid/graphics/hal"
	"github.com/scenegrid/graphics/hal/noop"
	"github.com/scenegrid/graphics/types"
)

// setupNoopHAL stands up a real hal.Device/hal.Queue pair through the
// hal/noop backend, the same sequence hal/bench_cross_backend_test.go
// uses to exercise the hal interfaces without native GPU drivers.
func setupNoopHAL(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()

	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("noop backend reported no adapters")
	}
	opened, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Adapter.Open: %v", err)
	}

	cleanup := func() {
		opened.Device.Destroy()
		instance.Destroy()
	}
	return opened.Device, opened.Queue, cleanup
}

// TestDeviceEncapsulatorOverNoopBackend wires NewHALEncapsulator and a
// real hal/noop device through NewDeviceEncapsulator, then creates and
// destroys a buffer resource so the backend adapter in backend_hal.go
// drives an actual hal.Device.CreateBuffer/DestroyBuffer round trip
// instead of a fake.
func TestDeviceEncapsulatorOverNoopBackend(t *testing.T) {
	dev, queue, cleanup := setupNoopHAL(t)
	defer cleanup()

	encAPI := NewHALEncapsulator(dev, queue)
	compiler := NewHALShaderCompiler()

	enc := NewDeviceEncapsulator()
	if err := enc.Create(types.BackendEmpty, encAPI, fakeContext{}, compiler, validPresentationParameters()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer enc.Destroy()

	buf, err := NewResourceBuffer(ResourceTypeVertices, 16, 12, ModeDefault, UsageNone, false)
	if err != nil {
		t.Fatalf("NewResourceBuffer: %v", err)
	}
	buf.Freeze()

	if err := buf.Create(enc, nil); err != nil {
		t.Fatalf("buffer Create over noop backend: %v", err)
	}
	if !buf.Available() {
		t.Fatal("buffer should be Available after Create")
	}
	if _, ok := buf.Entity().BackendObject().(hal.Buffer); !ok {
		t.Fatalf("buffer entity's backend object = %T, want hal.Buffer", buf.Entity().BackendObject())
	}

	buf.Destroy(enc)
	if buf.Available() {
		t.Fatal("buffer should not be Available after Destroy")
	}
}

// TestShaderCompilerOverNaga exercises NewHALShaderCompiler's Compile
// and Reflect path end to end, confirming the adapter isn't dead code
// alongside the encapsulator/context adapters above.
func TestShaderCompilerOverNaga(t *testing.T) {
	compiler := NewHALShaderCompiler()

	const tmpl = "const CLEAR_DEPTH: f32 = ${DEPTH};\n@vertex\nfn vs_main() -> @builtin(position) vec4<f32> {\n\treturn vec4<f32>(0.0, 0.0, CLEAR_DEPTH, 1.0);\n}\n"
	src, err := compiler.Preprocess(tmpl, map[string]string{"DEPTH": "1.0"})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if src == tmpl {
		t.Fatal("Preprocess did not substitute ${DEPTH}")
	}

	blob, err := compiler.Compile(src, ShaderStageVertex, "vs_main")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(blob) == 0 {
		t.Fatal("Compile returned an empty blob")
	}

	if _, err := compiler.Reflect(blob); err != nil {
		t.Fatalf("Reflect: %v", err)
	}
}
