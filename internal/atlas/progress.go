package atlas

import "fmt"

// ProgressCategory names a generation phase.
type ProgressCategory int

const (
	ProgressAddMesh ProgressCategory = iota
	ProgressComputeCharts
	ProgressPackCharts
	ProgressBuildOutputMeshes
)

// String returns the phase name.
func (c ProgressCategory) String() string {
	switch c {
	case ProgressAddMesh:
		return "AddMesh"
	case ProgressComputeCharts:
		return "ComputeCharts"
	case ProgressPackCharts:
		return "PackCharts"
	case ProgressBuildOutputMeshes:
		return "BuildOutputMeshes"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ProgressFunc receives a phase and its completion percentage (0-100).
// Each phase reports 0 first and 100 last; values never decrease within a phase.
type ProgressFunc func(category ProgressCategory, percent int)
