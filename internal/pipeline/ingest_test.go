package pipeline

import (
	"testing"

	"github.com/Faultbox/uvatlas/internal/atlas"
	"github.com/Faultbox/uvatlas/pkg/formats"
)

func TestDeclareFull(t *testing.T) {
	shape := uvTriangleShape("tri")
	d, ok := Declare(&shape, false).(*atlas.MeshDecl)
	if !ok {
		t.Fatalf("expected *atlas.MeshDecl")
	}
	if d.VertexCount() != 3 || d.TriangleCount() != 1 {
		t.Errorf("expected 3 vertices and 1 triangle, got %d and %d", d.VertexCount(), d.TriangleCount())
	}
	if d.IndexFormat != atlas.IndexUInt32 {
		t.Errorf("expected UInt32 indices, got %s", d.IndexFormat)
	}
	if d.NormalStride != 3 || d.UVStride != 2 || d.PositionStride != 3 {
		t.Errorf("unexpected strides %d/%d/%d", d.PositionStride, d.NormalStride, d.UVStride)
	}
	// Buffers are aliased, not copied
	if &d.Positions[0] != &shape.Positions[0] || &d.Normals[0] != &shape.Normals[0] ||
		&d.UVs[0] != &shape.TexCoords[0] || &d.Indices[0] != &shape.Indices[0] {
		t.Error("expected declaration to alias shape buffers")
	}
	if err := atlas.Validate(d); err != nil {
		t.Errorf("declaration should validate: %v", err)
	}
}

func TestDeclareFullWithoutOptionalBuffers(t *testing.T) {
	shape := quadShape("quad")
	d := Declare(&shape, false).(*atlas.MeshDecl)
	if d.Normals != nil || d.UVs != nil {
		t.Error("expected no normal or UV buffers")
	}
	if d.NormalStride != 0 || d.UVStride != 0 {
		t.Error("expected zero strides for absent buffers")
	}
	if d.VertexCount() != 4 || d.TriangleCount() != 2 {
		t.Errorf("expected 4 vertices and 2 triangles, got %d and %d", d.VertexCount(), d.TriangleCount())
	}
}

func TestDeclarePackOnly(t *testing.T) {
	shape := uvTriangleShape("tri")
	d, ok := Declare(&shape, true).(*atlas.UvMeshDecl)
	if !ok {
		t.Fatalf("expected *atlas.UvMeshDecl")
	}
	if &d.UVs[0] != &shape.TexCoords[0] {
		t.Error("expected UVs to alias the shape")
	}
	if d.VertexCount() != 3 || d.TriangleCount() != 1 {
		t.Errorf("expected 3 vertices and 1 triangle, got %d and %d", d.VertexCount(), d.TriangleCount())
	}

	// Without UVs the declaration is still built; the engine rejects it.
	quad := quadShape("quad")
	d = Declare(&quad, true).(*atlas.UvMeshDecl)
	if d.UVs != nil {
		t.Error("expected no UV buffer")
	}
	if err := atlas.Validate(d); err == nil {
		t.Error("expected validation to fail for a UV mesh without UVs")
	}
}

func TestDeclareAllOrder(t *testing.T) {
	shapes := []formats.OBJShape{quadShape("a"), uvTriangleShape("b"), quadShape("c")}
	decls := DeclareAll(shapes, false)
	if len(decls) != 3 {
		t.Fatalf("expected 3 declarations, got %d", len(decls))
	}
	want := []int{4, 3, 4}
	for i, d := range decls {
		if d.VertexCount() != want[i] {
			t.Errorf("declaration %d: expected %d vertices, got %d", i, want[i], d.VertexCount())
		}
	}
	if &decls[1].(*atlas.MeshDecl).Positions[0] != &shapes[1].Positions[0] {
		t.Error("expected declaration 1 to alias shape 1")
	}
}
