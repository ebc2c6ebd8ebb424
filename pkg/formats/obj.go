package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	xencoding "golang.org/x/text/encoding"

	"github.com/Faultbox/uvatlas/pkg/encoding"
)

// OBJ format errors.
var (
	ErrInvalidOBJNumber = errors.New("invalid OBJ number")
	ErrInvalidOBJIndex  = errors.New("OBJ index out of range")
	ErrInvalidOBJFace   = errors.New("invalid OBJ face")
)

// OBJShape is one sub-mesh of an OBJ document, flattened for upload.
// All attribute arrays share one vertex numbering: vertex i owns
// Positions[3i:3i+3], Normals[3i:3i+3] and TexCoords[2i:2i+2].
type OBJShape struct {
	Name      string
	Positions []float32 // 3 floats per vertex
	Normals   []float32 // 3 floats per vertex, or empty
	TexCoords []float32 // 2 floats per vertex, or empty
	Indices   []uint32  // 3 per triangle
}

// VertexCount returns the number of vertices.
func (s *OBJShape) VertexCount() int {
	return len(s.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (s *OBJShape) TriangleCount() int {
	return len(s.Indices) / 3
}

// Position returns the position of vertex i.
func (s *OBJShape) Position(i uint32) [3]float32 {
	p := s.Positions[i*3 : i*3+3]
	return [3]float32{p[0], p[1], p[2]}
}

// Normal returns the normal of vertex i, or false if the shape has no normals.
func (s *OBJShape) Normal(i uint32) ([3]float32, bool) {
	if len(s.Normals) == 0 {
		return [3]float32{}, false
	}
	n := s.Normals[i*3 : i*3+3]
	return [3]float32{n[0], n[1], n[2]}, true
}

// OBJOptions controls OBJ decoding.
type OBJOptions struct {
	// Charset decodes object and group names that are not valid UTF-8.
	// Nil keeps names byte-for-byte.
	Charset xencoding.Encoding
}

// ReadOBJ reads an OBJ document fully from r and parses it.
func ReadOBJ(r io.Reader, opts OBJOptions) ([]OBJShape, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	return ParseOBJ(data, opts)
}

// ParseOBJ parses an OBJ document into shapes.
// Polygons are fan-triangulated. A new shape starts at every "o" or "g"
// statement that follows at least one face; faces before any name form an
// unnamed shape. Statements other than v, vn, vt, f, o and g are ignored.
func ParseOBJ(data []byte, opts OBJOptions) ([]OBJShape, error) {
	p := &objParser{opts: opts}
	p.cur.reset("")

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if err := p.parseLine(scanner.Bytes()); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning OBJ: %w", err)
	}

	p.flush()
	return p.shapes, nil
}

// objVertexKey identifies a unique (v, vt, vn) combination. -1 means absent.
type objVertexKey struct {
	v, vt, vn int
}

type objParser struct {
	opts OBJOptions

	positions []float32
	normals   []float32
	texcoords []float32

	cur    objShapeBuilder
	shapes []OBJShape
}

type objShapeBuilder struct {
	name    string
	keys    []objVertexKey
	lookup  map[objVertexKey]uint32
	indices []uint32
}

func (b *objShapeBuilder) reset(name string) {
	b.name = name
	b.keys = nil
	b.lookup = make(map[objVertexKey]uint32)
	b.indices = nil
}

func (b *objShapeBuilder) vertex(key objVertexKey) uint32 {
	if idx, ok := b.lookup[key]; ok {
		return idx
	}
	idx := uint32(len(b.keys))
	b.keys = append(b.keys, key)
	b.lookup[key] = idx
	return idx
}

func (p *objParser) parseLine(raw []byte) error {
	if i := bytes.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	keyword, rest := raw, []byte(nil)
	if i := bytes.IndexAny(raw, " \t"); i >= 0 {
		keyword, rest = raw[:i], bytes.TrimSpace(raw[i+1:])
	}

	switch string(keyword) {
	case "v":
		return p.parseFloats(rest, 3, 3, &p.positions)
	case "vn":
		return p.parseFloats(rest, 3, 3, &p.normals)
	case "vt":
		return p.parseFloats(rest, 1, 2, &p.texcoords)
	case "f":
		return p.parseFace(strings.Fields(string(rest)))
	case "o", "g":
		name := encoding.ToUTF8(rest, p.opts.Charset)
		if len(p.cur.indices) > 0 {
			p.flush()
			p.cur.reset(name)
		} else {
			p.cur.name = name
		}
	}
	return nil
}

// parseFloats appends exactly n values to dst, reading at least required of
// them from the statement. Missing optional values are zero, extras ignored.
func (p *objParser) parseFloats(rest []byte, required, n int, dst *[]float32) error {
	fields := strings.Fields(string(rest))
	if len(fields) < required {
		return fmt.Errorf("%w: expected %d values, got %d", ErrInvalidOBJNumber, required, len(fields))
	}
	for i := 0; i < n; i++ {
		if i >= len(fields) {
			*dst = append(*dst, 0)
			continue
		}
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidOBJNumber, fields[i])
		}
		*dst = append(*dst, float32(f))
	}
	return nil
}

func (p *objParser) parseFace(refs []string) error {
	if len(refs) < 3 {
		return fmt.Errorf("%w: %d vertices", ErrInvalidOBJFace, len(refs))
	}

	verts := make([]uint32, len(refs))
	for i, ref := range refs {
		key, err := p.parseRef(ref)
		if err != nil {
			return err
		}
		verts[i] = p.cur.vertex(key)
	}

	for i := 1; i+1 < len(verts); i++ {
		p.cur.indices = append(p.cur.indices, verts[0], verts[i], verts[i+1])
	}
	return nil
}

func (p *objParser) parseRef(ref string) (objVertexKey, error) {
	key := objVertexKey{v: -1, vt: -1, vn: -1}
	parts := strings.Split(ref, "/")
	if len(parts) > 3 || parts[0] == "" {
		return key, fmt.Errorf("%w: %q", ErrInvalidOBJFace, ref)
	}

	var err error
	if key.v, err = resolveIndex(parts[0], len(p.positions)/3); err != nil {
		return key, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if key.vt, err = resolveIndex(parts[1], len(p.texcoords)/2); err != nil {
			return key, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if key.vn, err = resolveIndex(parts[2], len(p.normals)/3); err != nil {
			return key, err
		}
	}
	return key, nil
}

// resolveIndex converts a 1-based or negative (relative) OBJ index to a 0-based one.
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOBJNumber, s)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += count
	default:
		return 0, fmt.Errorf("%w: index 0", ErrInvalidOBJIndex)
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("%w: %s (have %d)", ErrInvalidOBJIndex, s, count)
	}
	return i, nil
}

// flush appends the current shape if it has faces.
func (p *objParser) flush() {
	b := &p.cur
	if len(b.indices) == 0 {
		return
	}

	var hasNormals, hasUVs bool
	for _, k := range b.keys {
		hasNormals = hasNormals || k.vn >= 0
		hasUVs = hasUVs || k.vt >= 0
	}

	shape := OBJShape{
		Name:      b.name,
		Positions: make([]float32, 0, len(b.keys)*3),
		Indices:   b.indices,
	}
	if hasNormals {
		shape.Normals = make([]float32, 0, len(b.keys)*3)
	}
	if hasUVs {
		shape.TexCoords = make([]float32, 0, len(b.keys)*2)
	}

	for _, k := range b.keys {
		shape.Positions = append(shape.Positions, p.positions[k.v*3:k.v*3+3]...)
		if hasNormals {
			if k.vn >= 0 {
				shape.Normals = append(shape.Normals, p.normals[k.vn*3:k.vn*3+3]...)
			} else {
				shape.Normals = append(shape.Normals, 0, 0, 0)
			}
		}
		if hasUVs {
			if k.vt >= 0 {
				shape.TexCoords = append(shape.TexCoords, p.texcoords[k.vt*2:k.vt*2+2]...)
			} else {
				shape.TexCoords = append(shape.TexCoords, 0, 0)
			}
		}
	}

	p.shapes = append(p.shapes, shape)
}
