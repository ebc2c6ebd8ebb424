// Package pipeline turns decoded OBJ shapes into atlas declarations, runs the
// atlas engine over them and writes the re-mapped OBJ document.
package pipeline

import (
	"github.com/Faultbox/uvatlas/internal/atlas"
	"github.com/Faultbox/uvatlas/pkg/formats"
)

const (
	positionStride = 3
	normalStride   = 3
	uvStride       = 2
)

// Declare builds the engine declaration for one shape. The declaration
// aliases the shape's buffers and must not outlive it.
//
// In pack-only mode the shape's existing UVs are packed as-is; a shape
// without UVs still yields a declaration and is rejected by the engine.
func Declare(shape *formats.OBJShape, packOnly bool) atlas.Declaration {
	vertices := shape.VertexCount()

	if packOnly {
		d := &atlas.UvMeshDecl{
			Vertices:       vertices,
			Positions:      shape.Positions,
			PositionStride: positionStride,
			Indices:        shape.Indices,
			IndexFormat:    atlas.IndexUInt32,
		}
		if len(shape.TexCoords) > 0 {
			d.UVs = shape.TexCoords
			d.UVStride = uvStride
		}
		return d
	}

	d := &atlas.MeshDecl{
		Vertices:       vertices,
		Positions:      shape.Positions,
		PositionStride: positionStride,
		Indices:        shape.Indices,
		IndexFormat:    atlas.IndexUInt32,
	}
	if len(shape.Normals) > 0 {
		d.Normals = shape.Normals
		d.NormalStride = normalStride
	}
	if len(shape.TexCoords) > 0 {
		d.UVs = shape.TexCoords
		d.UVStride = uvStride
	}
	return d
}

// DeclareAll declares every shape, preserving order.
func DeclareAll(shapes []formats.OBJShape, packOnly bool) []atlas.Declaration {
	decls := make([]atlas.Declaration, len(shapes))
	for i := range shapes {
		decls[i] = Declare(&shapes[i], packOnly)
	}
	return decls
}
