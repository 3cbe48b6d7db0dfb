// Package surface implements the surface projector: for each chunk in
// a queried area, it decodes the WORLD_SURFACE heightmap and resolves the
// block name at each column's surface height, producing a 256-entry block
// name array per chunk.
package surface

import (
	"context"

	"github.com/go-mc-tools/chunkanalyzer/internal/cache"
	"github.com/go-mc-tools/chunkanalyzer/internal/chunk"
	"github.com/go-mc-tools/chunkanalyzer/internal/nbt"
	"github.com/go-mc-tools/chunkanalyzer/internal/progress"
	"github.com/go-mc-tools/chunkanalyzer/internal/worldindex"
	"github.com/go-mc-tools/chunkanalyzer/pkg/coord"
)

// Cell is the 256 surface block names for one chunk, ordered by
// columnIndex(x, z).
type Cell [cellColumns]string

func airCell() Cell {
	var c Cell
	for i := range c {
		c[i] = "minecraft:air"
	}
	return c
}

// ProjectChunk decodes raw chunk NBT via read_path lookups of exactly
// "Heightmaps/WORLD_SURFACE" and "sections" — it never materializes the
// rest of the tree. A missing heightmap yields an all-air cell with no
// error; a malformed one is reported.
func ProjectChunk(raw []byte, cx, cz int, dim coord.Dimension) (Cell, error) {
	cell := airCell()

	heightTag, err := nbt.ReadPath(raw, []string{"Heightmaps", "WORLD_SURFACE"})
	if err != nil {
		return cell, err
	}
	if heightTag == nil {
		return cell, nil
	}
	longs, ok := heightTag.Value.([]int64)
	if !ok {
		return cell, &MalformedHeightmapError{CX: cx, CZ: cz, Got: -1}
	}
	heights, err := DecodeHeightmap(longs)
	if err != nil {
		if mh, ok := err.(*MalformedHeightmapError); ok {
			mh.CX, mh.CZ = cx, cz
		}
		return cell, err
	}

	sectionsTag, err := nbt.ReadPath(raw, []string{"sections"})
	if err != nil {
		return cell, err
	}
	var sections []chunk.Section
	if sectionsTag != nil {
		if list, ok := sectionsTag.Value.(*nbt.List); ok {
			sections = chunk.SectionsFromList(list)
		}
	}
	ch := chunk.NewChunk(cx, cz, sections)

	offset := dim.SurfaceYOffset()
	coords := make([]coord.ThreeDimCord, cellColumns)
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			i := columnIndex(x, z)
			coords[i] = coord.ThreeDimCord{X: x, Y: heights[i] - offset, Z: z}
		}
	}
	names := ch.GetBulk(coords)
	copy(cell[:], names)
	return cell, nil
}

// Matrix is the per-chunk projection result over a queried area, addressed
// by absolute chunk coordinate. A chunk that was never produced (unreadable
// region, cancellation) reads back as an all-air Cell via Get.
type Matrix struct {
	Area  coord.Corners
	cells map[coord.TwoDimCord]Cell
}

func newMatrix(area coord.Corners) *Matrix {
	return &Matrix{Area: area, cells: make(map[coord.TwoDimCord]Cell)}
}

// Get returns the cell for an absolute chunk coordinate, or an all-air Cell
// if it was never produced.
func (m *Matrix) Get(cx, cz int) Cell {
	c, ok := m.cells[coord.TwoDimCord{X: cx, Z: cz}]
	if !ok {
		return airCell()
	}
	return c
}

func (m *Matrix) set(cx, cz int, c Cell) {
	m.cells[coord.TwoDimCord{X: cx, Z: cz}] = c
}

// ProjectArea resolves area under dimensionRoot via internal/worldindex and
// projects every chunk it finds within area (the one-chunk margin
// worldindex returns is not needed here and is dropped). Cancellation is
// checked at each chunk boundary: once ctx is done, remaining chunks
// are simply left unset and read back as air through Matrix.Get.
//
// store and workerLimit are threaded through to worldindex.ResolveArea
// unchanged. If hub is non-nil, an Event is published after every chunk
// (and once more with Done=true at the end) under queryID, so a websocket
// client subscribed to that query can watch the projection progress instead
// of blocking until it's done.
func ProjectArea(ctx context.Context, dimensionRoot string, dim coord.Dimension, area coord.Corners, store *cache.Store, workerLimit int, hub *progress.Hub, queryID string) (*Matrix, []error) {
	results, failures := worldindex.ResolveArea(ctx, dimensionRoot, dim, area, store, workerLimit)
	matrix := newMatrix(area)

	total := 0
	for _, res := range results {
		for _, c := range res.Chunks {
			if area.Contains(c.CX, c.CZ) {
				total++
			}
		}
	}

	processed := 0
	for _, res := range results {
		for _, c := range res.Chunks {
			select {
			case <-ctx.Done():
				publishDone(hub, queryID, processed, total)
				return matrix, failures
			default:
			}
			if !area.Contains(c.CX, c.CZ) {
				continue
			}
			cell, err := ProjectChunk(c.Data, c.CX, c.CZ, dim)
			if err != nil {
				failures = append(failures, err)
				continue
			}
			matrix.set(c.CX, c.CZ, cell)
			processed++
			if hub != nil {
				hub.Publish(progress.Event{QueryID: queryID, Processed: processed, Total: total, CX: c.CX, CZ: c.CZ})
			}
		}
	}
	publishDone(hub, queryID, processed, total)
	return matrix, failures
}

func publishDone(hub *progress.Hub, queryID string, processed, total int) {
	if hub == nil {
		return
	}
	hub.Publish(progress.Event{QueryID: queryID, Processed: processed, Total: total, Done: true})
}
