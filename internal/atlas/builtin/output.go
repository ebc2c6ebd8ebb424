package builtin

import (
	"github.com/Faultbox/uvatlas/internal/atlas"
	pmath "github.com/Faultbox/uvatlas/pkg/math"
)

// buildMesh converts the packed charts of one mesh into output vertices and
// locally renumbered triangles. Faces keep their input order.
func buildMesh(m *meshData, charts []*chart) atlas.Mesh {
	out := atlas.Mesh{ChartCount: len(charts)}

	type faceRef struct {
		chart *chart
		base  uint32
	}
	faceChart := make([]faceRef, m.faceCount())

	for _, c := range charts {
		base := uint32(len(out.Vertices))
		for i, v := range c.vertices {
			out.Vertices = append(out.Vertices, atlas.Vertex{
				UV:         c.texel(c.uvs[i]),
				AtlasIndex: c.atlas,
				ChartIndex: c.index,
				Xref:       v,
			})
		}
		for _, f := range c.faces {
			faceChart[f] = faceRef{chart: c, base: base}
		}
	}

	out.Indices = make([]uint32, 0, len(m.indices))
	for f := 0; f < m.faceCount(); f++ {
		ref := faceChart[f]
		for k := 0; k < 3; k++ {
			out.Indices = append(out.Indices, ref.base+ref.chart.local[m.corner(f, k)])
		}
	}
	return out
}

// texel maps a chart-local UV to atlas texel coordinates.
func (c *chart) texel(uv pmath.Vec2) [2]float32 {
	q := uv.Sub(c.bounds.Min).Scale(c.scale)
	if c.rotated {
		q = pmath.Vec2{X: q.Y, Y: c.bounds.Width()*c.scale - q.X}
	}
	// Keep float rounding inside the chart's texel rectangle.
	q.X = clamp32(q.X, 0, float32(c.w-2*c.pad))
	q.Y = clamp32(q.Y, 0, float32(c.h-2*c.pad))
	p := q.Add(pmath.Vec2{X: float32(c.x + c.pad), Y: float32(c.y + c.pad)})
	return [2]float32{p.X, p.Y}
}

func clamp32(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
