package builtin

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/uvatlas/internal/atlas"
	pmath "github.com/Faultbox/uvatlas/pkg/math"
)

// meshData is a submitted declaration unpacked into dense arrays.
type meshData struct {
	uvOnly    bool
	positions []mgl32.Vec3
	normals   []mgl32.Vec3 // nil when not declared
	uvs       []pmath.Vec2 // nil when not declared
	indices   []uint32

	// Derived by prepare.
	faceNormals []mgl32.Vec3
	faceAreas   []float32
	colocal     []uint32 // canonical vertex for each vertex, by exact position
}

func newMeshData(decl atlas.Declaration) *meshData {
	switch d := decl.(type) {
	case *atlas.MeshDecl:
		return &meshData{
			positions: readVec3(d.Positions, d.PositionStride, d.Vertices),
			normals:   readVec3(d.Normals, d.NormalStride, d.Vertices),
			uvs:       readVec2(d.UVs, d.UVStride, d.Vertices),
			indices:   append([]uint32(nil), d.Indices...),
		}
	case *atlas.UvMeshDecl:
		return &meshData{
			uvOnly:    true,
			positions: readVec3(d.Positions, d.PositionStride, d.Vertices),
			uvs:       readVec2(d.UVs, d.UVStride, d.Vertices),
			indices:   append([]uint32(nil), d.Indices...),
		}
	}
	return nil
}

func readVec3(data []float32, stride, count int) []mgl32.Vec3 {
	if len(data) == 0 {
		return nil
	}
	stride = atlas.Stride(stride, 3)
	out := make([]mgl32.Vec3, count)
	for i := range out {
		o := i * stride
		out[i] = mgl32.Vec3{data[o], data[o+1], data[o+2]}
	}
	return out
}

func readVec2(data []float32, stride, count int) []pmath.Vec2 {
	if len(data) == 0 {
		return nil
	}
	stride = atlas.Stride(stride, 2)
	out := make([]pmath.Vec2, count)
	for i := range out {
		o := i * stride
		out[i] = pmath.Vec2{X: data[o], Y: data[o+1]}
	}
	return out
}

func (m *meshData) faceCount() int {
	return len(m.indices) / 3
}

func (m *meshData) corner(face, k int) uint32 {
	return m.indices[face*3+k]
}

// prepare computes face normals, areas and colocal vertices.
func (m *meshData) prepare() {
	faces := m.faceCount()
	m.faceNormals = make([]mgl32.Vec3, faces)
	m.faceAreas = make([]float32, faces)

	if m.positions != nil {
		for f := 0; f < faces; f++ {
			a := m.positions[m.corner(f, 0)]
			b := m.positions[m.corner(f, 1)]
			c := m.positions[m.corner(f, 2)]
			n := b.Sub(a).Cross(c.Sub(a))
			l := n.Len()
			m.faceAreas[f] = l * 0.5
			if l > 0 {
				m.faceNormals[f] = n.Mul(1 / l)
			}
		}
	}

	m.colocal = make([]uint32, len(m.positions))
	first := make(map[mgl32.Vec3]uint32, len(m.positions))
	for i, p := range m.positions {
		if c, ok := first[p]; ok {
			m.colocal[i] = c
			continue
		}
		first[p] = uint32(i)
		m.colocal[i] = uint32(i)
	}
}

// edgeKey identifies an undirected edge between colocal vertices.
type edgeKey struct {
	a, b uint32
}

func makeEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// adjacency lists, for each face edge, the faces sharing it.
type adjacency struct {
	edges map[edgeKey][]int32
}

func buildAdjacency(m *meshData) *adjacency {
	adj := &adjacency{edges: make(map[edgeKey][]int32, m.faceCount()*3/2)}
	for f := 0; f < m.faceCount(); f++ {
		for k := 0; k < 3; k++ {
			key := m.faceEdge(f, k)
			adj.edges[key] = append(adj.edges[key], int32(f))
		}
	}
	return adj
}

// faceEdge returns edge k of face f in colocal vertex space.
func (m *meshData) faceEdge(f, k int) edgeKey {
	a := m.colocal[m.corner(f, k)]
	b := m.colocal[m.corner(f, (k+1)%3)]
	return makeEdgeKey(a, b)
}

func (m *meshData) edgeLength(f, k int) float32 {
	a := m.positions[m.corner(f, k)]
	b := m.positions[m.corner(f, (k+1)%3)]
	return b.Sub(a).Len()
}

// neighbors returns the faces sharing edge k of face f, excluding f.
func (a *adjacency) neighbors(m *meshData, f, k int) []int32 {
	shared := a.edges[m.faceEdge(f, k)]
	out := make([]int32, 0, len(shared))
	for _, g := range shared {
		if int(g) != f {
			out = append(out, g)
		}
	}
	return out
}
