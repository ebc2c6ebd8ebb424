// Package builtin is a pure-Go atlas engine.
//
// Charts are grown greedily over welded faces and flattened by planar
// projection; UV meshes keep their input UVs. Charts are packed with a
// bottom-left skyline packer into one or more atlases.
package builtin

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/uvatlas/internal/atlas"
)

// Options configures the engine.
type Options struct {
	Workers int // chart computation workers, 0 means GOMAXPROCS
	Logger  *zap.Logger
}

// Engine implements atlas.Engine.
type Engine struct {
	workers  int
	log      *zap.Logger
	progress atlas.ProgressFunc

	decls     []atlas.Declaration
	result    *atlas.Result
	destroyed bool
}

var _ atlas.Engine = (*Engine)(nil)

// New creates an engine.
func New(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		workers:  workers,
		log:      log.Named("atlas"),
		progress: func(atlas.ProgressCategory, int) {},
	}
}

// Factory returns an atlas.Factory creating engines with opts.
func Factory(opts Options) atlas.Factory {
	return func() atlas.Engine {
		return New(opts)
	}
}

// SetProgress implements atlas.Engine.
func (e *Engine) SetProgress(fn atlas.ProgressFunc) {
	if fn == nil {
		fn = func(atlas.ProgressCategory, int) {}
	}
	e.progress = fn
}

// AddMesh implements atlas.Engine.
func (e *Engine) AddMesh(decl atlas.Declaration) error {
	switch {
	case e.destroyed:
		return atlas.ErrDestroyed
	case e.result != nil:
		return atlas.ErrAlreadyGenerated
	}
	if err := atlas.Validate(decl); err != nil {
		return err
	}
	e.decls = append(e.decls, decl)
	e.log.Debug("mesh added",
		zap.Int("mesh", len(e.decls)-1),
		zap.Int("vertices", decl.VertexCount()),
		zap.Int("triangles", decl.TriangleCount()))
	return nil
}

// Generate implements atlas.Engine.
func (e *Engine) Generate(chartOpts atlas.ChartOptions, packOpts atlas.PackOptions) (*atlas.Result, error) {
	switch {
	case e.destroyed:
		return nil, atlas.ErrDestroyed
	case e.result != nil:
		return nil, atlas.ErrAlreadyGenerated
	case len(e.decls) == 0:
		return nil, atlas.ErrNoMeshes
	}

	meshes := e.prepareMeshes()
	perMesh := e.computeCharts(meshes, chartOpts)

	var charts []*chart
	for _, cs := range perMesh {
		for _, c := range cs {
			c.index = int32(len(charts))
			charts = append(charts, c)
		}
	}

	r := newReporter(atlas.ProgressPackCharts, e.progress)
	packed := pack(charts, packOpts, r.update)
	r.finish()
	e.log.Debug("charts packed",
		zap.Int("charts", len(charts)),
		zap.Int("atlases", packed.atlasCount),
		zap.Int("width", packed.width),
		zap.Int("height", packed.height),
		zap.Float32("texelsPerUnit", packed.texelsPerUnit))

	res := &atlas.Result{
		Width:         packed.width,
		Height:        packed.height,
		AtlasCount:    packed.atlasCount,
		ChartCount:    len(charts),
		Utilization:   packed.utilization,
		TexelsPerUnit: packed.texelsPerUnit,
		Meshes:        make([]atlas.Mesh, len(meshes)),
	}

	r = newReporter(atlas.ProgressBuildOutputMeshes, e.progress)
	for i, m := range meshes {
		res.Meshes[i] = buildMesh(m, perMesh[i])
		r.update(i+1, len(meshes))
	}
	r.finish()

	e.decls = nil
	e.result = res
	return res, nil
}

// Destroy implements atlas.Engine.
func (e *Engine) Destroy() {
	e.decls = nil
	e.result = nil
	e.destroyed = true
}

func (e *Engine) prepareMeshes() []*meshData {
	r := newReporter(atlas.ProgressAddMesh, e.progress)
	meshes := make([]*meshData, len(e.decls))
	for i, decl := range e.decls {
		m := newMeshData(decl)
		m.prepare()
		meshes[i] = m
		r.update(i+1, len(e.decls))
	}
	r.finish()
	return meshes
}

// computeCharts segments meshes on a worker pool. Results are indexed by mesh
// so output order matches submission order.
func (e *Engine) computeCharts(meshes []*meshData, opts atlas.ChartOptions) [][]*chart {
	total := len(meshes)
	results := make([][]*chart, total)
	var processed atomic.Int64

	r := newReporter(atlas.ProgressComputeCharts, e.progress)

	meshChan := make(chan int, e.workers*2)
	var wg sync.WaitGroup
	for w := 0; w < min(e.workers, total); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range meshChan {
				results[idx] = computeCharts(idx, meshes[idx], opts)
				r.update(int(processed.Add(1)), total)
			}
		}()
	}

	for i := range meshes {
		meshChan <- i
	}
	close(meshChan)
	wg.Wait()
	r.finish()

	for i, cs := range results {
		e.log.Debug("charts computed", zap.Int("mesh", i), zap.Int("charts", len(cs)))
	}
	return results
}

// reporter forwards monotonic phase progress to a ProgressFunc.
// It is safe for concurrent use.
type reporter struct {
	mu       sync.Mutex
	category atlas.ProgressCategory
	fn       atlas.ProgressFunc
	last     int
}

func newReporter(category atlas.ProgressCategory, fn atlas.ProgressFunc) *reporter {
	fn(category, 0)
	return &reporter{category: category, fn: fn}
}

func (r *reporter) update(done, total int) {
	if total <= 0 {
		return
	}
	pct := done * 100 / total
	r.mu.Lock()
	defer r.mu.Unlock()
	// 100 is reserved for finish.
	if pct <= r.last || pct >= 100 {
		return
	}
	r.last = pct
	r.fn(r.category, pct)
}

func (r *reporter) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = 100
	r.fn(r.category, 100)
}
