// Package coord holds the small value types shared across the region, chunk
// and world-index packages: chunk-local and world coordinates, rectangular
// areas, and the dimension enum that drives height-map offsets and directory
// lookup rules.
package coord

import "fmt"

// TwoDimCord is a horizontal coordinate — a chunk or region position.
type TwoDimCord struct {
	X, Z int
}

func (c TwoDimCord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Z)
}

// ThreeDimCord is a voxel position. X and Z are chunk-local ([0,16)) for
// block lookups; Y is always world-absolute.
type ThreeDimCord struct {
	X, Y, Z int
}

func (c ThreeDimCord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z)
}

// Corners is an inclusive rectangle in chunk coordinates.
type Corners struct {
	XMin, XMax, ZMin, ZMax int
}

// NewCorners normalizes the two opposite points of a rectangle so XMin<=XMax
// and ZMin<=ZMax regardless of the order the caller supplied them in.
func NewCorners(x1, z1, x2, z2 int) Corners {
	c := Corners{XMin: x1, XMax: x2, ZMin: z1, ZMax: z2}
	if c.XMin > c.XMax {
		c.XMin, c.XMax = c.XMax, c.XMin
	}
	if c.ZMin > c.ZMax {
		c.ZMin, c.ZMax = c.ZMax, c.ZMin
	}
	return c
}

// Expand grows the rectangle by margin chunks on every side.
func (c Corners) Expand(margin int) Corners {
	return Corners{
		XMin: c.XMin - margin,
		XMax: c.XMax + margin,
		ZMin: c.ZMin - margin,
		ZMax: c.ZMax + margin,
	}
}

// Contains reports whether the chunk coordinate lies within the rectangle.
func (c Corners) Contains(cx, cz int) bool {
	return cx >= c.XMin && cx <= c.XMax && cz >= c.ZMin && cz <= c.ZMax
}

// Dimension controls the height-map offset and directory lookup rules.
type Dimension int

const (
	Overworld Dimension = iota
	Nether
	End
)

func (d Dimension) String() string {
	switch d {
	case Overworld:
		return "overworld"
	case Nether:
		return "the_nether"
	case End:
		return "the_end"
	default:
		return "unknown"
	}
}

// RegionSubpath returns the dimension-specific path segment under a world
// root where that dimension's region files live in a single-player save.
// It never returns ""; Overworld (and any unknown value) maps to "region".
// Bobby multiplayer cache layouts (<dim_folder>/region) are not covered.
func (d Dimension) RegionSubpath() string {
	switch d {
	case Nether:
		return "DIM-1/region"
	case End:
		return "DIM1/region"
	default:
		return "region"
	}
}

// SurfaceYOffset is the constant subtracted from a decoded WORLD_SURFACE
// height-map entry to get a world-absolute Y.
func (d Dimension) SurfaceYOffset() int {
	switch d {
	case Overworld:
		return 65
	default:
		return 1
	}
}

// YRange returns the valid world-Y read range for the dimension.
func (d Dimension) YRange() (min, max int) {
	switch d {
	case Overworld:
		return -64, 319
	default:
		return 0, 255
	}
}
