// Package chunk decodes a chunk's NBT tree into a queryable record: one
// Section per 16-cube slab, each carrying its block palette and (for
// multi-entry palettes) its bit-packed index data, plus a read-only query
// surface over the decoded sections.
package chunk

import (
	"sort"

	"github.com/go-mc-tools/chunkanalyzer/internal/nbt"
	"github.com/go-mc-tools/chunkanalyzer/pkg/coord"
)

// Section is one 16x16x16 slab of a chunk, decoded from a "sections" list
// entry. SectionY is the section index (world-Y = SectionY*16 + local-Y);
// it is always decoded as a signed NBT byte, so a pre-1.18 world that wrote
// it in the unsigned [128,255] range still reconstructs the correct
// negative index.
type Section struct {
	SectionY     int
	Palette      []string
	Data         []int64
	BitsPerBlock int
	SingleBlock  bool
}

// Chunk is a decoded, queryable chunk: an absolute coordinate plus its
// Sections. It never mutates after ParseChunk returns.
type Chunk struct {
	CX, CZ   int
	Sections []Section
}

// NewChunk builds a Chunk from already-decoded sections — the entry point
// internal/surface uses after a read_path lookup of just "sections",
// bypassing ParseChunk's whole-tree materialization.
func NewChunk(cx, cz int, sections []Section) *Chunk {
	return &Chunk{CX: cx, CZ: cz, Sections: sections}
}

// SectionsFromList decodes a "sections" list tag's elements into Sections,
// skipping malformed entries exactly as ParseChunk does.
func SectionsFromList(list *nbt.List) []Section {
	out := make([]Section, 0, len(list.Values))
	for _, v := range list.Values {
		sectionCompound, ok := v.(nbt.Compound)
		if !ok {
			continue
		}
		sec, ok := parseSection(sectionCompound)
		if !ok {
			continue
		}
		out = append(out, sec)
	}
	return out
}

// ParseChunk decodes a chunk's already-decompressed NBT bytes (a RawChunk's
// Data) into a Chunk. A malformed individual section (a palette entry with
// no Name tag) aborts only that section, not the whole chunk — it is simply
// omitted, matching the "no cross-word straddling, air-safe" posture the
// rest of this package takes toward partial data.
func ParseChunk(cx, cz int, data []byte) (*Chunk, error) {
	root, err := nbt.ReadFull(data)
	if err != nil {
		return nil, &ParseError{CX: cx, CZ: cz, Reason: err.Error()}
	}
	compound, err := nbt.RootCompound(root)
	if err != nil {
		return nil, &ParseError{CX: cx, CZ: cz, Reason: err.Error()}
	}

	list, ok := compound.GetList("sections")
	if !ok {
		return &Chunk{CX: cx, CZ: cz}, nil
	}
	return NewChunk(cx, cz, SectionsFromList(list)), nil
}

// parseSection builds a Section from one "sections" list entry. A section
// with no block_states.palette is skipped (reported via ok=false) — it
// contributes nothing to queries, which already treat "no section" as air.
func parseSection(s nbt.Compound) (Section, bool) {
	yByte, ok := s.GetByte("Y")
	if !ok {
		return Section{}, false
	}
	sectionY := int(int8(yByte))

	blockStates, ok := s.GetCompound("block_states")
	if !ok {
		return Section{}, false
	}
	paletteList, ok := blockStates.GetList("palette")
	if !ok {
		return Section{}, false
	}

	names := make([]string, 0, len(paletteList.Values))
	for _, v := range paletteList.Values {
		entry, ok := v.(nbt.Compound)
		if !ok {
			return Section{}, false
		}
		name, ok := entry.GetString("Name")
		if !ok {
			return Section{}, false
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return Section{}, false
	}

	sec := Section{
		SectionY:    sectionY,
		Palette:     names,
		SingleBlock: len(names) == 1,
	}
	if !sec.SingleBlock {
		sec.BitsPerBlock = calculateBitsPerBlock(len(names))
		if data, ok := blockStates.GetLongArray("data"); ok {
			sec.Data = data
		}
	}
	return sec, true
}

// sectionFor returns the Section whose SectionY == floor(y/16), if any.
func (c *Chunk) sectionFor(y int) (*Section, bool) {
	sy := floorDiv(y, 16)
	for i := range c.Sections {
		if c.Sections[i].SectionY == sy {
			return &c.Sections[i], true
		}
	}
	return nil, false
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Contains reports whether any section's palette holds name.
func (c *Chunk) Contains(name string) bool {
	for _, s := range c.Sections {
		for _, p := range s.Palette {
			if p == name {
				return true
			}
		}
	}
	return false
}

// Get resolves the block name at a chunk-local (x, z) and world-absolute y.
// Out-of-range x/z, a missing section, or an out-of-range packed index all
// resolve to "minecraft:air" rather than an error.
func (c *Chunk) Get(x, y, z int) string {
	if x < 0 || x >= 16 || z < 0 || z >= 16 {
		return airName
	}
	sec, ok := c.sectionFor(y)
	if !ok || len(sec.Palette) == 0 {
		return airName
	}
	if sec.SingleBlock {
		return sec.Palette[0]
	}
	localY := y - sec.SectionY*16
	idx := blockIndex(x, localY, z)
	id, ok := extractBlockID(sec.Data, sec.BitsPerBlock, idx)
	if !ok || id >= len(sec.Palette) {
		return airName
	}
	return sec.Palette[id]
}

// GetBulk maps Get across coords, preserving order.
func (c *Chunk) GetBulk(coords []coord.ThreeDimCord) []string {
	out := make([]string, len(coords))
	for i, co := range coords {
		out[i] = c.Get(co.X, co.Y, co.Z)
	}
	return out
}

// FindInArea returns every voxel in [yMin, yMax] equal to name, across every
// overlapping section. Results carry no required order; callers that
// need deterministic output should sort.
func (c *Chunk) FindInArea(name string, yMin, yMax int) []coord.ThreeDimCord {
	var hits []coord.ThreeDimCord
	for i := range c.Sections {
		sec := &c.Sections[i]
		sectionYMin := sec.SectionY * 16
		sectionYMax := sectionYMin + 15
		if sectionYMax < yMin || sectionYMin > yMax {
			continue
		}
		paletteIdx := indexOf(sec.Palette, name)
		if paletteIdx < 0 {
			continue
		}

		loY := maxInt(0, yMin-sectionYMin)
		hiY := minInt(15, yMax-sectionYMin)

		if sec.SingleBlock {
			for ly := loY; ly <= hiY; ly++ {
				for z := 0; z < 16; z++ {
					for x := 0; x < 16; x++ {
						hits = append(hits, coord.ThreeDimCord{X: x, Y: sectionYMin + ly, Z: z})
					}
				}
			}
			continue
		}

		blocksPerLong := 64 / sec.BitsPerBlock
		mask := int64(1)<<uint(sec.BitsPerBlock) - 1
		for ly := loY; ly <= hiY; ly++ {
			for z := 0; z < 16; z++ {
				for x := 0; x < 16; x++ {
					idx := blockIndex(x, ly, z)
					if idx >= 4096 {
						continue
					}
					word := idx / blocksPerLong
					if word >= len(sec.Data) {
						continue
					}
					bitOffset := (idx % blocksPerLong) * sec.BitsPerBlock
					id := (sec.Data[word] >> uint(bitOffset)) & mask
					if int(id) == paletteIdx {
						hits = append(hits, coord.ThreeDimCord{X: x, Y: sectionYMin + ly, Z: z})
					}
				}
			}
		}
	}
	return hits
}

// Palette returns the union of every section's palette.
func (c *Chunk) Palette() map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range c.Sections {
		for _, name := range s.Palette {
			out[name] = struct{}{}
		}
	}
	return out
}

// SortedPalette is Palette() as a sorted slice, for deterministic test
// output and CLI printing.
func (c *Chunk) SortedPalette() []string {
	set := c.Palette()
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
