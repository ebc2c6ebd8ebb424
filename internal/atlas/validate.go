package atlas

import (
	"fmt"
	"math"
)

// Validate checks a declaration for consistent buffer sizes and index ranges.
func Validate(decl Declaration) error {
	switch d := decl.(type) {
	case *MeshDecl:
		if err := checkBuffer("position", d.Positions, d.PositionStride, 3, d.Vertices, true); err != nil {
			return err
		}
		if err := checkBuffer("normal", d.Normals, d.NormalStride, 3, d.Vertices, false); err != nil {
			return err
		}
		if err := checkBuffer("uv", d.UVs, d.UVStride, 2, d.Vertices, false); err != nil {
			return err
		}
		return checkIndices(d.Indices, d.IndexFormat, d.Vertices)
	case *UvMeshDecl:
		if len(d.UVs) == 0 {
			return ErrMissingUVs
		}
		if err := checkBuffer("position", d.Positions, d.PositionStride, 3, d.Vertices, false); err != nil {
			return err
		}
		if err := checkBuffer("uv", d.UVs, d.UVStride, 2, d.Vertices, true); err != nil {
			return err
		}
		return checkIndices(d.Indices, d.IndexFormat, d.Vertices)
	case nil:
		return fmt.Errorf("%w: nil declaration", ErrInvalidBuffer)
	default:
		return fmt.Errorf("%w: unsupported declaration %T", ErrInvalidBuffer, decl)
	}
}

// Stride returns the effective element stride of a buffer.
func Stride(stride, components int) int {
	if stride <= 0 {
		return components
	}
	return stride
}

func checkBuffer(name string, data []float32, stride, components, vertices int, required bool) error {
	if len(data) == 0 {
		if required && vertices > 0 {
			return fmt.Errorf("%w: missing %s data", ErrInvalidBuffer, name)
		}
		return nil
	}
	stride = Stride(stride, components)
	if stride < components {
		return fmt.Errorf("%w: %s stride %d smaller than %d components", ErrInvalidBuffer, name, stride, components)
	}
	if vertices <= 0 {
		return fmt.Errorf("%w: %s data with zero vertices", ErrInvalidBuffer, name)
	}
	if need := (vertices-1)*stride + components; len(data) < need {
		return fmt.Errorf("%w: %s buffer has %d floats, need %d", ErrInvalidBuffer, name, len(data), need)
	}
	return nil
}

func checkIndices(indices []uint32, format IndexFormat, vertices int) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndexCount, len(indices))
	}
	limit := uint64(vertices)
	if format == IndexUInt16 && limit > math.MaxUint16+1 {
		limit = math.MaxUint16 + 1
	}
	for i, idx := range indices {
		if uint64(idx) >= limit {
			return fmt.Errorf("%w: index %d = %d, vertex count %d", ErrIndexOutOfRange, i, idx, vertices)
		}
	}
	return nil
}
