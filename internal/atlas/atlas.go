// Package atlas defines the contract between the pipeline and a UV atlas engine.
//
// An Engine receives mesh declarations, segments them into charts, packs the
// charts into one or more fixed-size atlases and exposes the generated meshes.
// Declarations alias caller-owned buffers; the engine must not retain them
// beyond Generate.
package atlas

import (
	"errors"
	"fmt"
)

// Submission and generation errors.
var (
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidIndexCount = errors.New("index count is not a multiple of 3")
	ErrInvalidBuffer     = errors.New("vertex buffer size does not match vertex count")
	ErrMissingUVs        = errors.New("UV mesh has no texture coordinates")
	ErrAlreadyGenerated  = errors.New("atlas already generated")
	ErrNoMeshes          = errors.New("no meshes added")
	ErrDestroyed         = errors.New("atlas destroyed")
)

// IndexFormat is the declared width of index values.
type IndexFormat int

const (
	IndexUInt16 IndexFormat = iota
	IndexUInt32
)

// String returns the format name.
func (f IndexFormat) String() string {
	switch f {
	case IndexUInt16:
		return "UInt16"
	case IndexUInt32:
		return "UInt32"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// Declaration is a mesh submitted to an Engine: either a MeshDecl or a UvMeshDecl.
type Declaration interface {
	VertexCount() int
	TriangleCount() int
	declaration()
}

// MeshDecl declares geometry that needs charting.
// Strides are in float32 elements; zero means tightly packed.
type MeshDecl struct {
	Vertices       int
	Positions      []float32
	PositionStride int
	Normals        []float32 // optional
	NormalStride   int
	UVs            []float32 // optional
	UVStride       int
	Indices        []uint32
	IndexFormat    IndexFormat
}

// VertexCount implements Declaration.
func (d *MeshDecl) VertexCount() int { return d.Vertices }

// TriangleCount implements Declaration.
func (d *MeshDecl) TriangleCount() int { return len(d.Indices) / 3 }

func (*MeshDecl) declaration() {}

// UvMeshDecl declares a mesh whose existing UVs are packed without re-charting.
// Positions are only used for counting vertices.
type UvMeshDecl struct {
	Vertices       int
	Positions      []float32
	PositionStride int
	UVs            []float32
	UVStride       int
	Indices        []uint32
	IndexFormat    IndexFormat
}

// VertexCount implements Declaration.
func (d *UvMeshDecl) VertexCount() int { return d.Vertices }

// TriangleCount implements Declaration.
func (d *UvMeshDecl) TriangleCount() int { return len(d.Indices) / 3 }

func (*UvMeshDecl) declaration() {}

// Vertex is one generated output vertex.
type Vertex struct {
	UV         [2]float32 // texel coordinates in the atlas
	AtlasIndex int32      // -1 if the vertex was not packed
	ChartIndex int32      // global chart index, -1 if none
	Xref       uint32     // index of the source vertex
}

// Mesh is the generated output for one submitted declaration.
type Mesh struct {
	Vertices   []Vertex
	Indices    []uint32 // local to Vertices
	ChartCount int
}

// Result is the output of one Generate call.
type Result struct {
	Width         int
	Height        int
	AtlasCount    int
	ChartCount    int
	Utilization   []float32 // per atlas, 0..1
	TexelsPerUnit float32
	Meshes        []Mesh
}

// Engine is a UV atlas generator.
// Implementations are not safe for concurrent use.
type Engine interface {
	// SetProgress registers the progress sink. Call before AddMesh.
	SetProgress(fn ProgressFunc)
	// AddMesh validates and queues a declaration.
	AddMesh(decl Declaration) error
	// Generate charts and packs every added mesh.
	Generate(chart ChartOptions, pack PackOptions) (*Result, error)
	// Destroy releases the engine and invalidates any returned Result.
	Destroy()
}

// Factory creates a fresh engine instance.
type Factory func() Engine
