package pipeline

import (
	"github.com/Faultbox/uvatlas/internal/atlas"
	"github.com/Faultbox/uvatlas/pkg/formats"
)

// fakeEngine maps every source vertex to one output vertex and keeps the
// submitted triangles. Failures and atlas assignment are scripted.
type fakeEngine struct {
	progress   atlas.ProgressFunc
	progressAt int // number of meshes added when SetProgress was called, -1 if never

	added      []atlas.Declaration
	failAt     int // AddMesh index that fails, -1 for none
	failErr    error
	genErr     error
	generated  int
	destroyed  int
	width      int
	height     int
	atlasCount int
	atlasOf    func(mesh, vertex int) int32
	uvOf       func(mesh, vertex int) [2]float32
	corrupt    func(*atlas.Result)
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		progressAt: -1,
		failAt:     -1,
		width:      64,
		height:     32,
		atlasCount: 1,
	}
}

func (e *fakeEngine) factory() atlas.Factory {
	return func() atlas.Engine { return e }
}

func (e *fakeEngine) SetProgress(fn atlas.ProgressFunc) {
	e.progress = fn
	e.progressAt = len(e.added)
}

func (e *fakeEngine) AddMesh(decl atlas.Declaration) error {
	if len(e.added) == e.failAt {
		return e.failErr
	}
	if err := atlas.Validate(decl); err != nil {
		return err
	}
	e.added = append(e.added, decl)
	return nil
}

func (e *fakeEngine) Generate(atlas.ChartOptions, atlas.PackOptions) (*atlas.Result, error) {
	e.generated++
	for _, c := range []atlas.ProgressCategory{atlas.ProgressAddMesh, atlas.ProgressComputeCharts, atlas.ProgressPackCharts, atlas.ProgressBuildOutputMeshes} {
		if e.progress != nil {
			e.progress(c, 0)
			e.progress(c, 100)
		}
	}
	if e.genErr != nil {
		return nil, e.genErr
	}

	res := &atlas.Result{
		Width:       e.width,
		Height:      e.height,
		AtlasCount:  e.atlasCount,
		ChartCount:  len(e.added),
		Utilization: make([]float32, e.atlasCount),
		Meshes:      make([]atlas.Mesh, len(e.added)),
	}
	for i := range res.Utilization {
		res.Utilization[i] = 0.5
	}
	for m, decl := range e.added {
		mesh := atlas.Mesh{ChartCount: 1, Indices: append([]uint32(nil), declIndices(decl)...)}
		for v := 0; v < decl.VertexCount(); v++ {
			vert := atlas.Vertex{Xref: uint32(v), ChartIndex: int32(m)}
			if e.atlasOf != nil {
				vert.AtlasIndex = e.atlasOf(m, v)
			}
			if e.uvOf != nil {
				vert.UV = e.uvOf(m, v)
			}
			mesh.Vertices = append(mesh.Vertices, vert)
		}
		res.Meshes[m] = mesh
	}
	if e.corrupt != nil {
		e.corrupt(res)
	}
	return res, nil
}

func (e *fakeEngine) Destroy() {
	e.destroyed++
}

func declIndices(decl atlas.Declaration) []uint32 {
	switch d := decl.(type) {
	case *atlas.MeshDecl:
		return d.Indices
	case *atlas.UvMeshDecl:
		return d.Indices
	}
	return nil
}

// quadShape is a unit quad in the XY plane split into two triangles.
func quadShape(name string) formats.OBJShape {
	return formats.OBJShape{
		Name:      name,
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

// uvTriangleShape is a single triangle with normals and UVs.
func uvTriangleShape(name string) formats.OBJShape {
	return formats.OBJShape{
		Name:      name,
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		TexCoords: []float32{0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
	}
}
