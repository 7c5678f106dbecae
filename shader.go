package graphics

import (
	"github.com/scenegrid/graphics/pool"
)

// ShaderStage names the pipeline stage a compiled program occupies.
type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStagePixel
	ShaderStageGeometry
	ShaderStageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStagePixel:
		return "pixel"
	case ShaderStageGeometry:
		return "geometry"
	case ShaderStageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// stageCount is the number of stage slots a ShaderEffect can bind.
const stageCount = int(ShaderStageCompute) + 1

// ProfileType names the target shader profile/model a program was
// compiled against (e.g. a backend-specific shading-language version).
type ProfileType uint8

const (
	ProfileTypeUnknown ProfileType = iota
	ProfileTypeSM4
	ProfileTypeSM5
	ProfileTypeGLSL100
	ProfileTypeGLSL300ES
)

// ShaderReflection is the result of IDeviceAPIShaderCompiler.Reflect: the
// bound-resource layout a compiled blob expects, enough for the
// encapsulator to validate binds against a ShaderEffect before Draw.
type ShaderReflection struct {
	ConstantBuffers []ReflectedBinding
	Textures        []ReflectedBinding
	Samplers        []ReflectedBinding
}

// ReflectedBinding names one resource slot a compiled program expects.
type ReflectedBinding struct {
	Name string
	Slot int
}

// ShaderProgram is a single compiled program for one stage, bound to a
// vertex declaration, sharable by the (vertexDecl, stage, profile, blob)
// tuple (component J).
type ShaderProgram struct {
	DeviceResource
	vertexDecl *VertexDeclaration
	stage      ShaderStage
	profile    ProfileType
	blob       []byte
	reflection ShaderReflection
}

// NewShaderProgram constructs an unfrozen program description. decl may
// be nil for non-vertex stages.
func NewShaderProgram(decl *VertexDeclaration, stage ShaderStage, profile ProfileType, blob []byte) *ShaderProgram {
	return &ShaderProgram{
		DeviceResource: newDeviceResource(ResourceTypeShaderProgram, true),
		vertexDecl:     decl,
		stage:          stage,
		profile:        profile,
		blob:           blob,
	}
}

// VertexDeclaration returns the program's bound vertex declaration, or
// nil for a non-vertex-stage program.
func (p *ShaderProgram) VertexDeclaration() *VertexDeclaration { return p.vertexDecl }

// Stage returns the program's pipeline stage.
func (p *ShaderProgram) Stage() ShaderStage { return p.stage }

// Profile returns the program's target profile.
func (p *ShaderProgram) Profile() ProfileType { return p.profile }

// Blob returns the program's compiled byte blob.
func (p *ShaderProgram) Blob() []byte { return p.blob }

// Reflection returns the program's reflected binding layout, populated by
// Compile.
func (p *ShaderProgram) Reflection() ShaderReflection { return p.reflection }

// PoolKey derives this program's shared-entity pool key from its
// resource type, stage, profile, and blob content — programs are
// "sharable by the tuple" per spec §3.
func (p *ShaderProgram) PoolKey() pool.Key {
	h := fnvOffset
	h = fnvMix(h, uint64(p.ResourceType()))
	h = fnvMix(h, uint64(p.stage))
	h = fnvMix(h, uint64(p.profile))
	for _, b := range p.blob {
		h = fnvMix(h, uint64(b))
	}
	if p.vertexDecl != nil {
		h = fnvMixString(h, p.vertexDecl.CanonicalName())
	}
	return pool.NewKey(p.ResourceType(), h)
}

// Compile routes the program's source through the device's shader
// compiler, replacing blob and populating Reflection — the wiring point
// named in SPEC_FULL.md for naga.Parse/Lower/Compile.
func (p *ShaderProgram) Compile(enc *DeviceEncapsulator, source string, defines map[string]string) error {
	p.checkThread()
	p.checkNotFrozen()

	preprocessed, err := enc.compiler.Preprocess(source, defines)
	if err != nil {
		return &ShaderCompilerException{Source: source, Err: err}
	}
	blob, err := enc.compiler.Compile(preprocessed, p.stage, profileString(p.profile))
	if err != nil {
		return &ShaderCompilerException{Source: source, Err: err}
	}
	refl, err := enc.compiler.Reflect(blob)
	if err != nil {
		return &ShaderCompilerException{Source: source, Err: err}
	}
	p.blob = blob
	p.reflection = refl
	return nil
}

// Create transfers exclusive ownership of a freshly allocated entity
// into the program, or acquires a parked one from the shared-entity
// pool when an equivalent compiled program already exists.
func (p *ShaderProgram) Create(enc *DeviceEncapsulator) error {
	p.checkThread()
	p.checkFrozen()

	if ent, hit := enc.Pool().AcquireExclusive(p); hit {
		p.attachEntity(ent.(*terminalEntity))
		p.entity.SetCreatedAt(enc.Revision())
		return nil
	}

	result, err := enc.encAPI.CreateResource(p.ResourceType(), shaderProgramCreateDesc{
		Stage:   p.stage,
		Profile: p.profile,
		Blob:    p.blob,
	})
	if err != nil {
		return &DeviceEncapsulatorException{Backend: enc.Backend().String(), Resource: &p.DeviceResource, Err: err}
	}
	ent := newTerminalEntity(enc.Backend(), p.ResourceType(), result.BackendObject, result.VideoMemoryBytes, result.Destroy)
	p.attachEntity(ent)
	ent.SetCreatedAt(enc.Revision())
	return nil
}

// Destroy yields the program's terminal entity back to the shared-entity
// pool.
func (p *ShaderProgram) Destroy(enc *DeviceEncapsulator) {
	p.checkThread()
	ent := p.detachEntity()
	enc.Pool().ReleaseExclusive(p.PoolKey(), ent)
}

type shaderProgramCreateDesc struct {
	Stage   ShaderStage
	Profile ProfileType
	Blob    []byte
}

func profileString(p ProfileType) string {
	switch p {
	case ProfileTypeSM4:
		return "sm4"
	case ProfileTypeSM5:
		return "sm5"
	case ProfileTypeGLSL100:
		return "glsl100"
	case ProfileTypeGLSL300ES:
		return "glsl300es"
	default:
		return "unknown"
	}
}

// ShaderEffect owns one program per stage slot plus a bound vertex
// declaration (component J). Stages are set before freeze and cleared
// only after freeze + destroy, per spec §3.
type ShaderEffect struct {
	DeviceResource
	vertexDecl *VertexDeclaration
	stages     [stageCount]*ShaderProgram
}

// NewShaderEffect constructs an unfrozen, empty effect bound to decl.
func NewShaderEffect(decl *VertexDeclaration) *ShaderEffect {
	return &ShaderEffect{
		DeviceResource: newDeviceResource(ResourceTypeShaderEffect, false),
		vertexDecl:     decl,
	}
}

// SetStage binds prog to the given stage slot. Legal only before freeze.
func (e *ShaderEffect) SetStage(stage ShaderStage, prog *ShaderProgram) {
	e.checkThread()
	e.checkNotFrozen()
	e.stages[stage] = prog
}

// Stage returns the program bound to the given stage slot, or nil.
func (e *ShaderEffect) Stage(stage ShaderStage) *ShaderProgram {
	e.checkThread()
	return e.stages[stage]
}

// VertexDeclaration returns the effect's bound vertex declaration.
func (e *ShaderEffect) VertexDeclaration() *VertexDeclaration { return e.vertexDecl }

// ClearStages detaches every bound program. Legal only after freeze and
// destroy, per spec §3 ("cleared only after freeze + destroy").
func (e *ShaderEffect) ClearStages() {
	e.checkThread()
	e.checkFrozen()
	if e.Available() {
		invariantViolation("ClearStages called while the effect's terminal entity is still attached")
	}
	for i := range e.stages {
		e.stages[i] = nil
	}
}

// Create attaches a terminal entity representing the linked effect
// (e.g. a backend pipeline-state object tying every bound stage
// together). Every stage must already be created and available.
func (e *ShaderEffect) Create(enc *DeviceEncapsulator) error {
	e.checkThread()
	e.checkFrozen()

	for i, s := range e.stages {
		if s != nil && !s.Available() {
			invariantViolation("ShaderEffect.Create requires stage %s be available", ShaderStage(i))
		}
	}

	result, err := enc.encAPI.CreateResource(e.ResourceType(), e.stages)
	if err != nil {
		return &DeviceEncapsulatorException{Backend: enc.Backend().String(), Resource: &e.DeviceResource, Err: err}
	}
	ent := newTerminalEntity(enc.Backend(), e.ResourceType(), result.BackendObject, result.VideoMemoryBytes, result.Destroy)
	e.attachEntity(ent)
	ent.SetCreatedAt(enc.Revision())
	return nil
}

// Destroy releases the effect's terminal entity for backend disposal.
func (e *ShaderEffect) Destroy(enc *DeviceEncapsulator) {
	e.checkThread()
	ent := e.detachEntity()
	ent.Destroy()
}
