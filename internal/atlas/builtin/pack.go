package builtin

import (
	"math"
	"sort"

	"github.com/Faultbox/uvatlas/internal/atlas"
)

// defaultResolution is the atlas size texelsPerUnit is estimated for when
// neither a resolution nor a texel density is given.
const defaultResolution = 1024

// fillTarget is the fraction of the atlas area the estimated density aims to fill.
const fillTarget = 0.7

const blockSize = 4

// packResult holds per-atlas dimensions after packing.
type packResult struct {
	width, height int
	atlasCount    int
	texelsPerUnit float32
	utilization   []float32
}

// estimateTexelsPerUnit derives a texel density from the total parametric area.
func estimateTexelsPerUnit(charts []*chart, opts atlas.PackOptions) float32 {
	if opts.TexelsPerUnit > 0 {
		return opts.TexelsPerUnit
	}
	var total float64
	for _, c := range charts {
		total += float64(max(c.paramArea, c.bounds.Width()*c.bounds.Height()*0.5))
	}
	if total <= 0 {
		return 1
	}
	res := float64(opts.Resolution)
	if res <= 0 {
		res = defaultResolution
	}
	return float32(math.Sqrt(res * res * fillTarget / total))
}

// sizeCharts computes each chart's texel rectangle.
func sizeCharts(charts []*chart, tpu float32, opts atlas.PackOptions) {
	pad := max(opts.Padding, 0)
	if opts.Bilinear {
		pad++
	}
	limit := 0
	if opts.MaxChartSize > 0 {
		limit = opts.MaxChartSize
	}
	if opts.Resolution > 0 {
		fit := opts.Resolution - 2*pad
		if opts.BlockAlign {
			fit -= blockSize
		}
		fit = max(fit, 1)
		if limit == 0 || fit < limit {
			limit = fit
		}
	}

	for _, c := range charts {
		c.pad = pad
		c.scale = tpu
		extent := max(c.bounds.Width(), c.bounds.Height()) * tpu
		if limit > 0 && extent > float32(limit) {
			c.scale = tpu * float32(limit) / extent
		}
		w := max(int(math.Ceil(float64(c.bounds.Width()*c.scale))), 1)
		h := max(int(math.Ceil(float64(c.bounds.Height()*c.scale))), 1)
		if limit > 0 {
			// A clamped extent can round up past the limit.
			w, h = min(w, limit), min(h, limit)
		}
		c.w, c.h = w+2*pad, h+2*pad
		c.rotated = false
		if opts.RotateCharts && c.h > c.w {
			c.w, c.h = c.h, c.w
			c.rotated = true
		}
		if opts.BlockAlign {
			c.w = alignUp(c.w, blockSize)
			c.h = alignUp(c.h, blockSize)
		}
	}
}

// pack places charts into atlases and returns the atlas layout.
func pack(charts []*chart, opts atlas.PackOptions, progress func(done, total int)) packResult {
	tpu := estimateTexelsPerUnit(charts, opts)
	sizeCharts(charts, tpu, opts)

	order := make([]*chart, len(charts))
	copy(order, charts)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].h != order[j].h {
			return order[i].h > order[j].h
		}
		return order[i].w > order[j].w
	})

	var res packResult
	res.texelsPerUnit = tpu

	if opts.Resolution > 0 {
		res.width, res.height = opts.Resolution, opts.Resolution
		res.atlasCount = packFixed(order, opts, progress)
	} else {
		s := newSkyline(openWidth(order, opts), 0)
		for i, c := range order {
			place(s, c, opts)
			c.atlas = 0
			progress(i+1, len(order))
		}
		for _, c := range order {
			res.width = max(res.width, c.x+c.w)
			res.height = max(res.height, c.y+c.h)
		}
		if opts.BlockAlign {
			res.width = alignUp(res.width, blockSize)
			res.height = alignUp(res.height, blockSize)
		}
		res.width, res.height = max(res.width, 1), max(res.height, 1)
		if len(order) > 0 {
			res.atlasCount = 1
		}
	}

	res.utilization = make([]float32, res.atlasCount)
	for _, c := range charts {
		res.utilization[c.atlas] += c.paramArea * c.scale * c.scale
	}
	area := float32(res.width * res.height)
	for i := range res.utilization {
		res.utilization[i] = min(res.utilization[i]/area, 1)
	}
	return res
}

// packFixed places charts into atlases of opts.Resolution, opening a new
// atlas when a chart fits none of the open ones. It returns the atlas count.
func packFixed(order []*chart, opts atlas.PackOptions, progress func(done, total int)) int {
	var atlases []*skyline
	for i, c := range order {
		placed := false
		for ai, s := range atlases {
			if place(s, c, opts) {
				c.atlas = int32(ai)
				placed = true
				break
			}
		}
		if !placed {
			s := newSkyline(opts.Resolution, opts.Resolution)
			atlases = append(atlases, s)
			if !place(s, c, opts) {
				// Oversized even after scaling; pin to the origin and
				// close the atlas to further charts.
				c.x, c.y = 0, 0
				s.insert(0, 0, s.width, s.height)
			}
			c.atlas = int32(len(atlases) - 1)
		}
		progress(i+1, len(order))
	}
	return len(atlases)
}

// openWidth picks the skyline width for an unbounded single atlas.
func openWidth(charts []*chart, opts atlas.PackOptions) int {
	var area, widest int
	for _, c := range charts {
		area += c.w * c.h
		widest = max(widest, c.w, c.h)
	}
	w := int(math.Ceil(math.Sqrt(float64(area) / 0.8)))
	w = max(w, widest, 1)
	if opts.BlockAlign {
		w = alignUp(w, blockSize)
	}
	return w
}

// place finds a position for c in s, trying the rotated orientation as well
// when brute force is enabled.
func place(s *skyline, c *chart, opts atlas.PackOptions) bool {
	x, y, ok := s.find(c.w, c.h)
	if opts.BruteForce && opts.RotateCharts && c.w != c.h {
		if rx, ry, rok := s.find(c.h, c.w); rok && (!ok || ry+c.w < y+c.h || (ry+c.w == y+c.h && rx < x)) {
			c.w, c.h = c.h, c.w
			c.rotated = !c.rotated
			x, y, ok = rx, ry, true
		}
	}
	if !ok {
		return false
	}
	s.insert(x, y, c.w, c.h)
	c.x, c.y = x, y
	return true
}

func alignUp(v, n int) int {
	return (v + n - 1) / n * n
}

// skyline is a bottom-left skyline rectangle packer.
type skyline struct {
	width  int
	height int // 0 means unbounded
	nodes  []skyNode
}

type skyNode struct {
	x, y, w int
}

func newSkyline(width, height int) *skyline {
	return &skyline{
		width:  width,
		height: height,
		nodes:  []skyNode{{x: 0, y: 0, w: width}},
	}
}

// find returns the lowest, then leftmost, position for a w x h rectangle.
func (s *skyline) find(w, h int) (x, y int, ok bool) {
	bestY, bestX := math.MaxInt, math.MaxInt
	for i, n := range s.nodes {
		top, fits := s.fit(i, w, h)
		if !fits {
			continue
		}
		if top < bestY || (top == bestY && n.x < bestX) {
			bestY, bestX = top, n.x
			ok = true
		}
	}
	return bestX, bestY, ok
}

// fit returns the y at which a rectangle starting at node i rests.
func (s *skyline) fit(i, w, h int) (int, bool) {
	x := s.nodes[i].x
	if x+w > s.width {
		return 0, false
	}
	y := 0
	remaining := w
	for j := i; remaining > 0; j++ {
		if j >= len(s.nodes) {
			return 0, false
		}
		y = max(y, s.nodes[j].y)
		if s.height > 0 && y+h > s.height {
			return 0, false
		}
		remaining -= s.nodes[j].w
	}
	return y, true
}

// insert raises the skyline under the rectangle at (x, y).
func (s *skyline) insert(x, y, w, h int) {
	node := skyNode{x: x, y: y + h, w: w}
	out := make([]skyNode, 0, len(s.nodes)+2)
	for _, n := range s.nodes {
		end := n.x + n.w
		switch {
		case end <= x || n.x >= x+w:
			out = append(out, n)
		default:
			if n.x < x {
				out = append(out, skyNode{x: n.x, y: n.y, w: x - n.x})
			}
			if end > x+w {
				out = append(out, skyNode{x: x + w, y: n.y, w: end - (x + w)})
			}
		}
	}

	i := sort.Search(len(out), func(i int) bool { return out[i].x >= x })
	out = append(out, skyNode{})
	copy(out[i+1:], out[i:])
	out[i] = node

	// Merge neighbors at the same height.
	merged := out[:1]
	for _, n := range out[1:] {
		last := &merged[len(merged)-1]
		if last.y == n.y && last.x+last.w == n.x {
			last.w += n.w
			continue
		}
		merged = append(merged, n)
	}
	s.nodes = merged
}
