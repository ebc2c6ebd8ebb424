package formats

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

const testQuadOBJ = `# quad
o Quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestParseOBJ_Quad(t *testing.T) {
	shapes, err := ParseOBJ([]byte(testQuadOBJ), OBJOptions{})
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if len(shapes) != 1 {
		t.Fatalf("expected 1 shape, got %d", len(shapes))
	}

	s := shapes[0]
	if s.Name != "Quad" {
		t.Errorf("expected name Quad, got %q", s.Name)
	}
	if s.VertexCount() != 4 {
		t.Errorf("expected 4 vertices, got %d", s.VertexCount())
	}
	if s.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", s.TriangleCount())
	}
	if len(s.Normals) != 12 {
		t.Errorf("expected 12 normal floats, got %d", len(s.Normals))
	}
	if len(s.TexCoords) != 8 {
		t.Errorf("expected 8 texcoord floats, got %d", len(s.TexCoords))
	}

	want := []uint32{0, 1, 2, 0, 2, 3}
	for i, idx := range want {
		if s.Indices[i] != idx {
			t.Errorf("index %d: expected %d, got %d", i, idx, s.Indices[i])
		}
	}

	if p := s.Position(2); p != [3]float32{1, 1, 0} {
		t.Errorf("expected position 2 = (1,1,0), got %v", p)
	}
	if n, ok := s.Normal(3); !ok || n != [3]float32{0, 0, 1} {
		t.Errorf("expected normal 3 = (0,0,1), got %v (ok=%v)", n, ok)
	}
}

func TestParseOBJ_PositionsOnly(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	shapes, err := ParseOBJ([]byte(src), OBJOptions{})
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if len(shapes) != 1 {
		t.Fatalf("expected 1 shape, got %d", len(shapes))
	}
	s := shapes[0]
	if s.Name != "" {
		t.Errorf("expected unnamed shape, got %q", s.Name)
	}
	if len(s.Normals) != 0 || len(s.TexCoords) != 0 {
		t.Errorf("expected no normals/texcoords, got %d/%d", len(s.Normals), len(s.TexCoords))
	}
	if _, ok := s.Normal(0); ok {
		t.Error("Normal() should report false without normals")
	}
}

func TestParseOBJ_NegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"
	shapes, err := ParseOBJ([]byte(src), OBJOptions{})
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if got := shapes[0].Position(shapes[0].Indices[0]); got != [3]float32{0, 0, 0} {
		t.Errorf("expected first corner at origin, got %v", got)
	}
	if got := shapes[0].Position(shapes[0].Indices[2]); got != [3]float32{0, 1, 0} {
		t.Errorf("expected last corner at (0,1,0), got %v", got)
	}
}

func TestParseOBJ_ShapeSplitting(t *testing.T) {
	src := `o First
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
g Second
v 0 0 1
f 1 2 4
f 2 3 4
o Empty
o Third
f 1 3 4
`
	shapes, err := ParseOBJ([]byte(src), OBJOptions{})
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	names := []string{"First", "Second", "Third"}
	if len(shapes) != len(names) {
		t.Fatalf("expected %d shapes, got %d", len(names), len(shapes))
	}
	for i, name := range names {
		if shapes[i].Name != name {
			t.Errorf("shape %d: expected name %q, got %q", i, name, shapes[i].Name)
		}
	}

	// Vertices are local to each shape.
	if shapes[1].VertexCount() != 4 {
		t.Errorf("expected Second to have 4 vertices, got %d", shapes[1].VertexCount())
	}
	if shapes[2].VertexCount() != 3 {
		t.Errorf("expected Third to have 3 vertices, got %d", shapes[2].VertexCount())
	}
	for i, s := range shapes {
		for _, idx := range s.Indices {
			if int(idx) >= s.VertexCount() {
				t.Errorf("shape %d: index %d out of range", i, idx)
			}
		}
	}
}

func TestParseOBJ_VertexDedup(t *testing.T) {
	// Two faces share v1/v3 with the same texcoords, but v2 is split by a UV seam.
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vt 0 0
vt 1 0
vt 0 1
vt 0.5 0.5
f 1/1 2/2 3/3
f 2/4 4/2 3/3
`
	shapes, err := ParseOBJ([]byte(src), OBJOptions{})
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if got := shapes[0].VertexCount(); got != 5 {
		t.Errorf("expected 5 unique vertices, got %d", got)
	}
}

func TestParseOBJ_MixedNormals(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2 3\n"
	shapes, err := ParseOBJ([]byte(src), OBJOptions{})
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	s := shapes[0]
	if len(s.Normals) != len(s.Positions) {
		t.Fatalf("expected normals for every vertex, got %d floats for %d", len(s.Normals), len(s.Positions))
	}
	if n, _ := s.Normal(1); n != [3]float32{} {
		t.Errorf("expected zero normal for vertex without vn, got %v", n)
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"bad number", "v 0 x 0\n", ErrInvalidOBJNumber},
		{"short vertex", "v 0 0\n", ErrInvalidOBJNumber},
		{"index out of range", "v 0 0 0\nf 1 2 3\n", ErrInvalidOBJIndex},
		{"zero index", "v 0 0 0\nv 0 0 0\nv 0 0 0\nf 0 1 2\n", ErrInvalidOBJIndex},
		{"two vertex face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrInvalidOBJFace},
		{"bad reference", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1/1/1 2 3\n", ErrInvalidOBJFace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ([]byte(tt.src), OBJOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if err != nil && !strings.HasPrefix(err.Error(), "line ") {
				t.Errorf("expected error with line number, got %q", err)
			}
		})
	}
}

func TestParseOBJ_Empty(t *testing.T) {
	shapes, err := ParseOBJ([]byte("# nothing here\nmtllib x.mtl\n"), OBJOptions{})
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if len(shapes) != 0 {
		t.Errorf("expected no shapes, got %d", len(shapes))
	}
}

func TestParseOBJ_NameCharset(t *testing.T) {
	src := []byte("o W\xfcrfel\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	shapes, err := ParseOBJ(src, OBJOptions{Charset: charmap.Windows1252})
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if shapes[0].Name != "Würfel" {
		t.Errorf("expected decoded name Würfel, got %q", shapes[0].Name)
	}
}

func TestReadOBJ(t *testing.T) {
	shapes, err := ReadOBJ(strings.NewReader(testQuadOBJ), OBJOptions{})
	if err != nil {
		t.Fatalf("ReadOBJ failed: %v", err)
	}
	if len(shapes) != 1 {
		t.Errorf("expected 1 shape, got %d", len(shapes))
	}
}

func TestOBJWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewOBJWriter(&buf)
	w.Comment("test")
	w.Object("Quad")
	w.Smoothing(0)
	w.Vertex(0, 0.5, -1)
	w.Normal(0, 0, 1)
	w.TexCoord(0.25, 1.5)
	w.Face([3]OBJFaceRef{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}})
	w.Face([3]OBJFaceRef{{1, 1, 0}, {2, 2, 0}, {3, 3, 0}})
	w.Face([3]OBJFaceRef{{1, 0, 1}, {2, 0, 2}, {3, 0, 3}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	want := `# test
o Quad
s off
v 0 0.5 -1
vn 0 0 1
vt 0.25 1.5
f 1/1/1 2/2/2 3/3/3
f 1/1 2/2 3/3
f 1//1 2//2 3//3
`
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestOBJWriter_StickyError(t *testing.T) {
	w := NewOBJWriter(failingWriter{})
	w.Line("STARTOBJ")
	if err := w.Flush(); err == nil {
		t.Fatal("expected flush error")
	}
	w.Vertex(1, 2, 3)
	if w.Err() == nil {
		t.Error("expected error to stick after failure")
	}
}

func TestOBJWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewOBJWriter(&buf)
	w.Object("Tri")
	w.Vertex(0, 0, 0)
	w.Vertex(1, 0, 0)
	w.Vertex(0, 1, 0)
	w.TexCoord(0.125, 0)
	w.TexCoord(1, 0)
	w.TexCoord(0, 1)
	w.Face([3]OBJFaceRef{{1, 1, 0}, {2, 2, 0}, {3, 3, 0}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	shapes, err := ParseOBJ(buf.Bytes(), OBJOptions{})
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if shapes[0].Name != "Tri" || shapes[0].TriangleCount() != 1 {
		t.Fatalf("unexpected shape %q with %d triangles", shapes[0].Name, shapes[0].TriangleCount())
	}
	if shapes[0].TexCoords[0] != 0.125 {
		t.Errorf("expected u=0.125, got %v", shapes[0].TexCoords[0])
	}
}
