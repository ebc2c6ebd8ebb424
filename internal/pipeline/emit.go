package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/uvatlas/internal/atlas"
	"github.com/Faultbox/uvatlas/internal/layout"
	"github.com/Faultbox/uvatlas/pkg/formats"
)

// DefaultSentinel marks the start of the OBJ payload.
const DefaultSentinel = "STARTOBJ"

// ErrShapeMismatch is returned when the result and the shapes differ in length.
var ErrShapeMismatch = errors.New("generated meshes do not match input shapes")

// EmitOptions configures document emission.
type EmitOptions struct {
	Sentinel     string // empty means DefaultSentinel
	OmitSentinel bool   // set when the document is not shared with other output
	Header       string // optional leading comment
	Layout       layout.Strategy
}

// Emit writes the generated meshes as one OBJ document.
//
// Every mesh becomes an object with its own vertices. OBJ indices are global
// across the document, so faces are offset by the vertices of all previous
// meshes. Positions and normals are taken from the source shape through each
// vertex's back-reference; texture coordinates are normalized to the atlas
// size and offset per atlas by the layout strategy.
func Emit(w io.Writer, res *atlas.Result, shapes []formats.OBJShape, opts EmitOptions) error {
	if len(res.Meshes) != len(shapes) {
		return fmt.Errorf("%w: %d meshes, %d shapes", ErrShapeMismatch, len(res.Meshes), len(shapes))
	}
	sentinel := opts.Sentinel
	if sentinel == "" {
		sentinel = DefaultSentinel
	}

	ow := formats.NewOBJWriter(w)
	if !opts.OmitSentinel {
		ow.Line(sentinel)
	}
	if opts.Header != "" {
		ow.Comment(opts.Header)
	}

	width, height := float32(res.Width), float32(res.Height)
	var firstVertex uint32
	for i := range res.Meshes {
		mesh := &res.Meshes[i]
		shape := &shapes[i]
		_, hasNormals := shape.Normal(0)

		ow.Object(shape.Name)
		ow.Smoothing(0)

		for _, v := range mesh.Vertices {
			p := shape.Position(v.Xref)
			ow.Vertex(p[0], p[1], p[2])
			if hasNormals {
				n, _ := shape.Normal(v.Xref)
				ow.Normal(n[0], n[1], n[2])
			}
			du, dv := layout.Placement(v.AtlasIndex, opts.Layout, res.AtlasCount)
			ow.TexCoord(v.UV[0]/width+du, v.UV[1]/height+dv)
		}

		for f := 0; f+2 < len(mesh.Indices); f += 3 {
			var refs [3]formats.OBJFaceRef
			for k := 0; k < 3; k++ {
				index := firstVertex + mesh.Indices[f+k] + 1 // 1-based
				refs[k] = formats.OBJFaceRef{V: index, VT: index}
				if hasNormals {
					refs[k].VN = index
				}
			}
			ow.Face(refs)
		}
		firstVertex += uint32(len(mesh.Vertices))

		if err := ow.Err(); err != nil {
			return fmt.Errorf("writing mesh %d: %w", i, err)
		}
	}

	if err := ow.Flush(); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
