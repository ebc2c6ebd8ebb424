package pipeline

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/uvatlas/internal/atlas"
	"github.com/Faultbox/uvatlas/pkg/formats"
)

var (
	// ErrNoShapes is returned when there is nothing to submit.
	ErrNoShapes = errors.New("no shapes to process")
	// ErrInvalidResult is returned when the engine output does not match the submitted meshes.
	ErrInvalidResult = errors.New("engine returned an inconsistent result")
)

// SubmitError reports a declaration the engine rejected.
type SubmitError struct {
	Index int
	Name  string
	Err   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("adding mesh %d '%s': %v", e.Index, e.Name, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// InvokeOptions configures one engine run.
type InvokeOptions struct {
	Chart    atlas.ChartOptions
	Pack     atlas.PackOptions
	Progress atlas.ProgressFunc // nil discards progress
	Logger   *zap.Logger        // nil discards logs
}

// Stats summarizes one engine run.
type Stats struct {
	Shapes          int
	InputVertices   int
	InputTriangles  int
	OutputVertices  int
	OutputTriangles int
	Charts          int
	Atlases         int
	Width           int
	Height          int
	Resolution      int // requested pack resolution, 0 if unbounded
	TexelsPerUnit   float32
	Utilization     []float32
	Elapsed         time.Duration
}

// Session owns an engine that has generated an atlas.
// The result stays valid until Close.
type Session struct {
	engine atlas.Engine
	result *atlas.Result
	stats  Stats
	closed bool
}

// Result returns the generated atlas.
func (s *Session) Result() *atlas.Result {
	return s.result
}

// Stats returns the run summary.
func (s *Session) Stats() Stats {
	return s.stats
}

// Close destroys the engine. It is safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.engine.Destroy()
	s.result = nil
}

// Invoke creates one engine, submits decls in order and generates the atlas.
// shapes supplies the names used in submission errors. The engine is
// destroyed on every error path; on success the caller must Close the session.
func Invoke(factory atlas.Factory, decls []atlas.Declaration, shapes []formats.OBJShape, opts InvokeOptions) (*Session, error) {
	if len(decls) == 0 {
		return nil, ErrNoShapes
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	engine := factory()
	if opts.Progress != nil {
		engine.SetProgress(opts.Progress)
	}

	stats := Stats{Shapes: len(decls), Resolution: opts.Pack.Resolution}
	for i, decl := range decls {
		if err := engine.AddMesh(decl); err != nil {
			engine.Destroy()
			name := ""
			if i < len(shapes) {
				name = shapes[i].Name
			}
			return nil, &SubmitError{Index: i, Name: name, Err: err}
		}
		stats.InputVertices += decl.VertexCount()
		stats.InputTriangles += decl.TriangleCount()
	}
	log.Info("meshes added",
		zap.Int("shapes", stats.Shapes),
		zap.Int("vertices", stats.InputVertices),
		zap.Int("triangles", stats.InputTriangles))

	log.Info("generating atlas")
	res, err := engine.Generate(opts.Chart, opts.Pack)
	if err != nil {
		engine.Destroy()
		return nil, fmt.Errorf("generating atlas: %w", err)
	}
	if err := checkResult(res, decls); err != nil {
		engine.Destroy()
		return nil, err
	}

	stats.Charts = res.ChartCount
	stats.Atlases = res.AtlasCount
	stats.Width = res.Width
	stats.Height = res.Height
	stats.TexelsPerUnit = res.TexelsPerUnit
	stats.Utilization = res.Utilization
	for _, m := range res.Meshes {
		stats.OutputVertices += len(m.Vertices)
		stats.OutputTriangles += len(m.Indices) / 3
	}
	stats.Elapsed = time.Since(start)

	logStats(log, stats)
	return &Session{engine: engine, result: res, stats: stats}, nil
}

// checkResult verifies every index and back-reference the emitter will follow.
func checkResult(res *atlas.Result, decls []atlas.Declaration) error {
	if res == nil {
		return fmt.Errorf("%w: no result", ErrInvalidResult)
	}
	if len(res.Meshes) != len(decls) {
		return fmt.Errorf("%w: %d meshes for %d declarations", ErrInvalidResult, len(res.Meshes), len(decls))
	}
	if res.Width <= 0 || res.Height <= 0 {
		return fmt.Errorf("%w: atlas size %dx%d", ErrInvalidResult, res.Width, res.Height)
	}
	for i, m := range res.Meshes {
		if len(m.Indices)%3 != 0 {
			return fmt.Errorf("%w: mesh %d has %d indices", ErrInvalidResult, i, len(m.Indices))
		}
		for _, idx := range m.Indices {
			if int(idx) >= len(m.Vertices) {
				return fmt.Errorf("%w: mesh %d index %d out of range", ErrInvalidResult, i, idx)
			}
		}
		sourceVertices := decls[i].VertexCount()
		for _, v := range m.Vertices {
			if int(v.Xref) >= sourceVertices {
				return fmt.Errorf("%w: mesh %d back-reference %d out of range", ErrInvalidResult, i, v.Xref)
			}
		}
	}
	return nil
}

func logStats(log *zap.Logger, s Stats) {
	log.Info("atlas generated",
		zap.Int("packResolution", s.Resolution),
		zap.Int("charts", s.Charts),
		zap.Int("atlases", s.Atlases))
	for i, u := range s.Utilization {
		log.Info("atlas utilization",
			zap.Int("atlas", i),
			zap.String("utilization", fmt.Sprintf("%.2f%%", u*100)))
	}
	log.Info("output",
		zap.String("resolution", fmt.Sprintf("%dx%d", s.Width, s.Height)),
		zap.Int("vertices", s.OutputVertices),
		zap.Int("triangles", s.OutputTriangles),
		zap.Duration("elapsed", s.Elapsed))
}
