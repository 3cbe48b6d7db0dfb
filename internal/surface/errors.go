package surface

import "fmt"

// MalformedHeightmapError means Heightmaps/WORLD_SURFACE wasn't exactly 37
// longs — the 9-bits-per-value packed layout requires exactly that many.
type MalformedHeightmapError struct {
	CX, CZ int
	Got    int
}

func (e *MalformedHeightmapError) Error() string {
	return fmt.Sprintf("surface: chunk (%d, %d): WORLD_SURFACE has %d longs, want 37", e.CX, e.CZ, e.Got)
}
