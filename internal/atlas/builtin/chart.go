package builtin

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/uvatlas/internal/atlas"
	pmath "github.com/Faultbox/uvatlas/pkg/math"
)

// Faces deviating more than this from a chart's average normal never join it.
const minNormalDot = 0.5

// Faces this far from the final chart normal would fold when projected.
const foldNormalDot = 0.1

// Attributes closer than this are considered equal for seam detection.
const seamEpsilon = 1e-4

type chart struct {
	mesh     int
	faces    []int32
	normal   mgl32.Vec3 // area-weighted sum of face normals
	area     float32
	boundary float32

	// Parameterization, in mesh units.
	vertices  []uint32 // distinct source vertices
	local     map[uint32]uint32
	uvs       []pmath.Vec2
	bounds    pmath.Rect
	paramArea float32

	// Packing, in texels.
	index   int32
	scale   float32
	atlas   int32
	x, y    int
	w, h    int
	pad     int
	rotated bool
}

func (c *chart) averageNormal() mgl32.Vec3 {
	if c.normal.Len() == 0 {
		return mgl32.Vec3{0, 0, 1}
	}
	return c.normal.Normalize()
}

// computeCharts segments a mesh into charts and parameterizes them.
func computeCharts(meshIndex int, m *meshData, opts atlas.ChartOptions) []*chart {
	var charts []*chart
	if m.uvOnly {
		charts = uvCharts(m)
	} else {
		charts = segment(m, opts)
	}
	for _, c := range charts {
		c.mesh = meshIndex
		c.parameterize(m)
	}
	return charts
}

// uvCharts groups faces that share a vertex. Existing UVs are kept, so every
// referenced vertex ends up in exactly one chart.
func uvCharts(m *meshData) []*chart {
	faces := m.faceCount()
	parent := make([]int32, faces)
	for i := range parent {
		parent[i] = int32(i)
	}
	var find func(int32) int32
	find = func(x int32) int32 {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	firstFace := make([]int32, len(m.uvs))
	for i := range firstFace {
		firstFace[i] = -1
	}
	for f := 0; f < faces; f++ {
		for k := 0; k < 3; k++ {
			v := m.corner(f, k)
			if firstFace[v] < 0 {
				firstFace[v] = int32(f)
				continue
			}
			a, b := find(int32(f)), find(firstFace[v])
			if a != b {
				parent[max(a, b)] = min(a, b)
			}
		}
	}

	byRoot := make(map[int32]*chart)
	var charts []*chart
	for f := 0; f < faces; f++ {
		root := find(int32(f))
		c, ok := byRoot[root]
		if !ok {
			c = &chart{}
			byRoot[root] = c
			charts = append(charts, c)
		}
		c.faces = append(c.faces, int32(f))
		c.area += m.faceAreas[f]
	}
	return charts
}

// segment grows charts greedily from seed faces in face order.
func segment(m *meshData, opts atlas.ChartOptions) []*chart {
	faces := m.faceCount()
	adj := buildAdjacency(m)
	owner := make([]int32, faces)
	for i := range owner {
		owner[i] = -1
	}

	g := &grower{m: m, adj: adj, opts: opts, owner: owner}
	var charts []*chart
	for seed := 0; seed < faces; seed++ {
		if owner[seed] >= 0 {
			continue
		}
		c := &chart{}
		id := int32(len(charts))
		charts = append(charts, c)
		g.add(c, id, seed)

		queue := g.neighbors(seed)
		for len(queue) > 0 {
			f := int(queue[0])
			queue = queue[1:]
			if owner[f] >= 0 {
				continue
			}
			if g.accept(c, id, f) {
				g.add(c, id, f)
				queue = append(queue, g.neighbors(f)...)
			}
		}
	}

	for i := 0; i < opts.MaxIterations; i++ {
		var merged bool
		charts, merged = g.merge(charts)
		if !merged {
			break
		}
	}
	return g.evictFolded(charts)
}

type grower struct {
	m     *meshData
	adj   *adjacency
	opts  atlas.ChartOptions
	owner []int32
}

func (g *grower) neighbors(f int) []int32 {
	var out []int32
	for k := 0; k < 3; k++ {
		for _, n := range g.adj.neighbors(g.m, f, k) {
			if g.owner[n] < 0 {
				out = append(out, n)
			}
		}
	}
	return out
}

func (g *grower) perimeter(f int) float32 {
	return g.m.edgeLength(f, 0) + g.m.edgeLength(f, 1) + g.m.edgeLength(f, 2)
}

// shared returns the edge length face f shares with chart id and whether any
// shared edge crosses a normal or texture seam.
func (g *grower) shared(id int32, f int) (length float32, normalSeam, textureSeam bool) {
	for k := 0; k < 3; k++ {
		for _, n := range g.adj.neighbors(g.m, f, k) {
			if g.owner[n] != id {
				continue
			}
			length += g.m.edgeLength(f, k)
			ns, ts := g.m.seam(f, k, int(n))
			normalSeam = normalSeam || ns
			textureSeam = textureSeam || ts
			break
		}
	}
	return length, normalSeam, textureSeam
}

func (g *grower) add(c *chart, id int32, f int) {
	shared, _, _ := g.shared(id, f)
	g.owner[f] = id
	c.faces = append(c.faces, int32(f))
	c.normal = c.normal.Add(g.m.faceNormals[f].Mul(g.m.faceAreas[f]))
	c.area += g.m.faceAreas[f]
	c.boundary += g.perimeter(f) - 2*shared
}

func (g *grower) accept(c *chart, id int32, f int) bool {
	area := g.m.faceAreas[f]
	d := float32(1)
	if area > 0 {
		d = g.m.faceNormals[f].Dot(c.averageNormal())
		if d < minNormalDot {
			return false
		}
	}

	shared, normalSeam, textureSeam := g.shared(id, f)
	perim := g.perimeter(f)
	newArea := c.area + area
	newBoundary := c.boundary + perim - 2*shared
	if g.opts.MaxChartArea > 0 && newArea > g.opts.MaxChartArea {
		return false
	}
	if g.opts.MaxBoundaryLength > 0 && newBoundary > g.opts.MaxBoundaryLength {
		return false
	}

	cost := g.opts.NormalDeviationWeight * (1 - d)
	if newBoundary > 0 {
		compactness := 1 - 4*math.Pi*newArea/(newBoundary*newBoundary)
		cost += g.opts.RoundnessWeight * clamp01(compactness)
	}
	if perim > 0 {
		cost += g.opts.StraightnessWeight * 0.1 * (1 - shared/perim)
	}
	if normalSeam {
		cost += g.opts.NormalSeamWeight
	}
	if textureSeam {
		cost += g.opts.TextureSeamWeight
	}
	return cost <= g.opts.MaxCost
}

type chartPair struct {
	a, b int32
}

// merge joins adjacent charts whose normals agree. It returns the surviving
// charts and whether anything was merged.
func (g *grower) merge(charts []*chart) ([]*chart, bool) {
	sharedLen := make(map[chartPair]float32)
	seams := make(map[chartPair]bool)
	for f := 0; f < g.m.faceCount(); f++ {
		for k := 0; k < 3; k++ {
			for _, n := range g.adj.neighbors(g.m, f, k) {
				a, b := g.owner[f], g.owner[n]
				if a >= b {
					continue
				}
				p := chartPair{a, b}
				sharedLen[p] += g.m.edgeLength(f, k)
				ns, ts := g.m.seam(f, k, int(n))
				if ns || ts {
					seams[p] = true
				}
			}
		}
	}

	pairs := make([]chartPair, 0, len(sharedLen))
	for p := range sharedLen {
		if !seams[p] {
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	alive := make([]bool, len(charts))
	for i := range alive {
		alive[i] = true
	}
	touched := make([]bool, len(charts))
	merged := false
	for _, p := range pairs {
		if !alive[p.a] || !alive[p.b] || touched[p.a] || touched[p.b] {
			continue
		}
		ca, cb := charts[p.a], charts[p.b]
		d := ca.averageNormal().Dot(cb.averageNormal())
		if d < minNormalDot || g.opts.NormalDeviationWeight*(1-d) > g.opts.MaxCost*0.5 {
			continue
		}
		area := ca.area + cb.area
		boundary := ca.boundary + cb.boundary - 2*sharedLen[p]
		if g.opts.MaxChartArea > 0 && area > g.opts.MaxChartArea {
			continue
		}
		if g.opts.MaxBoundaryLength > 0 && boundary > g.opts.MaxBoundaryLength {
			continue
		}

		ca.faces = append(ca.faces, cb.faces...)
		ca.normal = ca.normal.Add(cb.normal)
		ca.area = area
		ca.boundary = boundary
		alive[p.b] = false
		touched[p.a] = true
		merged = true
	}
	if !merged {
		return charts, false
	}

	out := charts[:0]
	for i, c := range charts {
		if alive[i] {
			out = append(out, c)
		}
	}
	g.reown(out)
	return out, true
}

// evictFolded moves faces that face away from their chart's final normal
// into charts of their own.
func (g *grower) evictFolded(charts []*chart) []*chart {
	var evicted []int32
	for _, c := range charts {
		n := c.averageNormal()
		kept := c.faces[:0]
		for _, f := range c.faces {
			if g.m.faceAreas[f] > 0 && g.m.faceNormals[f].Dot(n) < foldNormalDot {
				evicted = append(evicted, f)
				c.normal = c.normal.Sub(g.m.faceNormals[f].Mul(g.m.faceAreas[f]))
				c.area -= g.m.faceAreas[f]
				continue
			}
			kept = append(kept, f)
		}
		c.faces = kept
	}

	out := charts[:0]
	for _, c := range charts {
		if len(c.faces) > 0 {
			out = append(out, c)
		}
	}
	for _, f := range evicted {
		out = append(out, &chart{
			faces:    []int32{f},
			normal:   g.m.faceNormals[f].Mul(g.m.faceAreas[f]),
			area:     g.m.faceAreas[f],
			boundary: g.perimeter(int(f)),
		})
	}
	g.reown(out)
	return out
}

func (g *grower) reown(charts []*chart) {
	for id, c := range charts {
		for _, f := range c.faces {
			g.owner[f] = int32(id)
		}
	}
}

// seam reports whether edge k of face f and the matching edge of face n carry
// different normals or texture coordinates.
func (m *meshData) seam(f, k, n int) (normalSeam, textureSeam bool) {
	for _, corner := range [2]int{k, (k + 1) % 3} {
		v := m.corner(f, corner)
		w, ok := m.colocalCorner(n, m.colocal[v])
		if !ok || v == w {
			continue
		}
		if m.normals != nil && m.normals[v].Sub(m.normals[w]).Len() > seamEpsilon {
			normalSeam = true
		}
		if m.uvs != nil && m.uvs[v].Sub(m.uvs[w]).Length() > seamEpsilon {
			textureSeam = true
		}
	}
	return normalSeam, textureSeam
}

func (m *meshData) colocalCorner(f int, canonical uint32) (uint32, bool) {
	for k := 0; k < 3; k++ {
		v := m.corner(f, k)
		if m.colocal[v] == canonical {
			return v, true
		}
	}
	return 0, false
}

// parameterize assigns chart-local UVs: the input UVs for UV meshes, a planar
// projection onto the chart's average-normal plane otherwise.
func (c *chart) parameterize(m *meshData) {
	c.local = make(map[uint32]uint32)
	for _, f := range c.faces {
		for k := 0; k < 3; k++ {
			v := m.corner(int(f), k)
			if _, ok := c.local[v]; !ok {
				c.local[v] = uint32(len(c.vertices))
				c.vertices = append(c.vertices, v)
			}
		}
	}

	c.uvs = make([]pmath.Vec2, len(c.vertices))
	if m.uvOnly {
		for i, v := range c.vertices {
			c.uvs[i] = m.uvs[v]
		}
	} else {
		t, b := tangentBasis(c.averageNormal())
		for i, v := range c.vertices {
			p := m.positions[v]
			c.uvs[i] = pmath.Vec2{X: p.Dot(t), Y: p.Dot(b)}
		}
	}

	c.bounds = pmath.EmptyRect()
	for _, uv := range c.uvs {
		c.bounds = c.bounds.Extend(uv)
	}
	c.paramArea = 0
	for _, f := range c.faces {
		a := c.uvs[c.local[m.corner(int(f), 0)]]
		b := c.uvs[c.local[m.corner(int(f), 1)]]
		d := c.uvs[c.local[m.corner(int(f), 2)]]
		c.paramArea += abs32(pmath.TriangleArea(a, b, d))
	}
}

// tangentBasis returns two unit vectors spanning the plane orthogonal to n,
// oriented so that counter-clockwise faces stay counter-clockwise in UV space.
func tangentBasis(n mgl32.Vec3) (t, b mgl32.Vec3) {
	axis := mgl32.Vec3{1, 0, 0}
	if abs32(n.X()) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	t = n.Cross(axis).Normalize()
	b = n.Cross(t)
	return t, b
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
