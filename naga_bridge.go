package graphics

import "github.com/gogpu/naga"

// nagaEntryPoints parses source and returns the WGSL entry-point names
// naga's AST exposes, used to build a ShaderReflection's binding list
// without re-implementing naga's own binding-layout analysis.
func nagaEntryPoints(source string) ([]string, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.Lower(ast)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(module.EntryPoints))
	for _, ep := range module.EntryPoints {
		names = append(names, ep.Name)
	}
	return names, nil
}

// nagaCompileSPIRV runs the single cross-platform codegen path gogpu-gg's
// native backend uses (internal/native/shader_helper.go): naga.Compile
// takes WGSL source text directly and emits a SPIR-V blob. Backend-
// specific codegen (GLSL, HLSL, ...) is left to whichever hal.Device
// implementation a future native backend adds; this adapter only needs
// one portable blob format to hand back through ResourceCreateResult.
func nagaCompileSPIRV(source string) ([]byte, error) {
	return naga.Compile(source)
}
