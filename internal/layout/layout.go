// Package layout places multiple output atlases in a single UV space.
package layout

import (
	"fmt"
	"strings"
)

// Strategy selects how atlases are laid out in UV space.
type Strategy int

const (
	// Overlap puts every atlas in the same 0-1 square.
	Overlap Strategy = iota
	// SpreadX places atlas i at u offset i.
	SpreadX
	// UDIM places atlases on a 10-wide grid of tiles.
	UDIM
)

// udimRowLength is the number of tiles in one UDIM row.
const udimRowLength = 10

// String returns the strategy name as accepted by ParseStrategy.
func (s Strategy) String() string {
	switch s {
	case Overlap:
		return "overlap"
	case SpreadX:
		return "spreadX"
	case UDIM:
		return "udim"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ParseStrategy parses a strategy name case-insensitively.
func ParseStrategy(name string) (Strategy, bool) {
	switch strings.ToLower(name) {
	case "overlap":
		return Overlap, true
	case "spreadx":
		return SpreadX, true
	case "udim":
		return UDIM, true
	}
	return Overlap, false
}

// Placement returns the UV offset for vertices packed into atlasIndex.
// Atlas 0 (and unpacked vertices, index < 0) is never offset.
// atlasCount is accepted for symmetry with callers; offsets do not depend on it.
func Placement(atlasIndex int32, s Strategy, atlasCount int) (u, v float32) {
	if atlasIndex <= 0 {
		return 0, 0
	}
	switch s {
	case SpreadX:
		return float32(atlasIndex), 0
	case UDIM:
		return float32(atlasIndex % udimRowLength), float32(atlasIndex / udimRowLength)
	default:
		return 0, 0
	}
}

// Tile returns the UDIM tile number (1001-based) for an atlas index.
func Tile(atlasIndex int32) int {
	if atlasIndex < 0 {
		atlasIndex = 0
	}
	u, v := Placement(atlasIndex, UDIM, 0)
	return 1001 + int(u) + int(v)*udimRowLength
}
