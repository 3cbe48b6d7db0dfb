package chunk

import (
	"testing"

	"github.com/go-mc-tools/chunkanalyzer/internal/nbt"
	"github.com/go-mc-tools/chunkanalyzer/pkg/coord"
)

func TestCalculateBitsPerBlock(t *testing.T) {
	cases := []struct {
		paletteLen int
		want       int
	}{
		{0, 4}, {1, 4}, {2, 4}, {15, 4}, {16, 4}, {17, 5}, {32, 5}, {33, 6}, {256, 8},
	}
	for _, tc := range cases {
		if got := calculateBitsPerBlock(tc.paletteLen); got != tc.want {
			t.Errorf("calculateBitsPerBlock(%d) = %d, want %d", tc.paletteLen, got, tc.want)
		}
	}
}

// packValues packs values (each < 1<<bitsPerBlock) into the no-straddling
// layout: blocksPerLong values per 64-bit word, low-bit first, remaining
// high bits of each word unused.
func packValues(values []int, bitsPerBlock int) []int64 {
	blocksPerLong := 64 / bitsPerBlock
	numWords := (len(values) + blocksPerLong - 1) / blocksPerLong
	out := make([]int64, numWords)
	for i, v := range values {
		word := i / blocksPerLong
		bitOffset := uint(i%blocksPerLong) * uint(bitsPerBlock)
		out[word] |= int64(v) << bitOffset
	}
	return out
}

func TestExtractBlockIDRoundTrips(t *testing.T) {
	bitsPerBlock := 5
	values := make([]int, 4096)
	for i := range values {
		values[i] = i % 30
	}
	data := packValues(values, bitsPerBlock)

	for _, idx := range []int{0, 1, 12, 4095, 4000} {
		id, ok := extractBlockID(data, bitsPerBlock, idx)
		if !ok {
			t.Fatalf("extractBlockID(idx=%d) returned ok=false", idx)
		}
		if id != values[idx] {
			t.Errorf("extractBlockID(idx=%d) = %d, want %d", idx, id, values[idx])
		}
	}
}

func TestExtractBlockIDOutOfRangeWordIsAirSafe(t *testing.T) {
	data := []int64{0}
	id, ok := extractBlockID(data, 5, 4000)
	if ok {
		t.Fatalf("expected ok=false for out-of-range word, got id=%d", id)
	}
}

func buildSection(sectionY int, palette []string, values []int) Section {
	if len(palette) <= 1 {
		return Section{SectionY: sectionY, Palette: palette, SingleBlock: true}
	}
	bits := calculateBitsPerBlock(len(palette))
	return Section{
		SectionY:     sectionY,
		Palette:      palette,
		Data:         packValues(values, bits),
		BitsPerBlock: bits,
		SingleBlock:  false,
	}
}

func TestChunkGetSingleBlockSection(t *testing.T) {
	c := &Chunk{CX: 0, CZ: 0, Sections: []Section{
		buildSection(4, []string{"minecraft:stone"}, nil),
	}}
	got := c.Get(3, 4*16+5, 10)
	if got != "minecraft:stone" {
		t.Fatalf("Get = %q, want minecraft:stone", got)
	}
}

func TestChunkGetMultiBlockSection(t *testing.T) {
	palette := []string{"minecraft:air", "minecraft:stone", "minecraft:dirt"}
	values := make([]int, 4096)
	values[blockIndex(2, 3, 7)] = 2 // dirt

	c := &Chunk{CX: 0, CZ: 0, Sections: []Section{
		buildSection(0, palette, values),
	}}
	got := c.Get(2, 3, 7)
	if got != "minecraft:dirt" {
		t.Fatalf("Get(2,3,7) = %q, want minecraft:dirt", got)
	}
	// Untouched voxel defaults to palette index 0.
	got2 := c.Get(5, 5, 5)
	if got2 != "minecraft:air" {
		t.Fatalf("Get(5,5,5) = %q, want minecraft:air", got2)
	}
}

func TestChunkGetMissingSectionIsAir(t *testing.T) {
	c := &Chunk{CX: 0, CZ: 0}
	if got := c.Get(1, 200, 1); got != airName {
		t.Fatalf("Get on empty chunk = %q, want %q", got, airName)
	}
}

func TestChunkGetOutOfRangeXZIsAir(t *testing.T) {
	c := &Chunk{CX: 0, CZ: 0, Sections: []Section{
		buildSection(0, []string{"minecraft:stone"}, nil),
	}}
	if got := c.Get(16, 5, 0); got != airName {
		t.Fatalf("Get with x=16 = %q, want air", got)
	}
	if got := c.Get(0, 5, -1); got != airName {
		t.Fatalf("Get with z=-1 = %q, want air", got)
	}
}

func TestChunkContainsAndPalette(t *testing.T) {
	c := &Chunk{CX: 0, CZ: 0, Sections: []Section{
		buildSection(0, []string{"minecraft:stone", "minecraft:dirt"}, make([]int, 4096)),
		buildSection(1, []string{"minecraft:water"}, nil),
	}}
	if !c.Contains("minecraft:water") {
		t.Fatalf("Contains(water) = false, want true")
	}
	if c.Contains("minecraft:lava") {
		t.Fatalf("Contains(lava) = true, want false")
	}
	palette := c.SortedPalette()
	want := []string{"minecraft:dirt", "minecraft:stone", "minecraft:water"}
	if len(palette) != len(want) {
		t.Fatalf("palette = %v, want %v", palette, want)
	}
	for i := range want {
		if palette[i] != want[i] {
			t.Fatalf("palette[%d] = %q, want %q", i, palette[i], want[i])
		}
	}
}

func TestChunkGetBulkPreservesOrder(t *testing.T) {
	c := &Chunk{CX: 0, CZ: 0, Sections: []Section{
		buildSection(0, []string{"minecraft:stone"}, nil),
	}}
	coords := []coord.ThreeDimCord{{X: 0, Y: 0, Z: 0}, {X: 20, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 1}}
	got := c.GetBulk(coords)
	want := []string{"minecraft:stone", airName, "minecraft:stone"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetBulk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFindInAreaSingleBlockSection(t *testing.T) {
	c := &Chunk{CX: 0, CZ: 0, Sections: []Section{
		buildSection(0, []string{"minecraft:stone"}, nil),
	}}
	hits := c.FindInArea("minecraft:stone", 0, 15)
	if len(hits) != 16*16*16 {
		t.Fatalf("len(hits) = %d, want %d", len(hits), 16*16*16)
	}
}

func TestFindInAreaMultiBlockSection(t *testing.T) {
	palette := []string{"minecraft:air", "minecraft:gold_ore"}
	values := make([]int, 4096)
	values[blockIndex(1, 2, 3)] = 1
	values[blockIndex(4, 2, 5)] = 1

	c := &Chunk{CX: 0, CZ: 0, Sections: []Section{
		buildSection(0, palette, values),
	}}
	hits := c.FindInArea("minecraft:gold_ore", 0, 15)
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	seen := map[coord.ThreeDimCord]bool{}
	for _, h := range hits {
		seen[h] = true
	}
	if !seen[(coord.ThreeDimCord{X: 1, Y: 2, Z: 3})] || !seen[(coord.ThreeDimCord{X: 4, Y: 2, Z: 5})] {
		t.Fatalf("hits = %v, missing an expected coordinate", hits)
	}
}

func TestFindInAreaRespectsYRange(t *testing.T) {
	palette := []string{"minecraft:air", "minecraft:diamond_ore"}
	values := make([]int, 4096)
	values[blockIndex(0, 0, 0)] = 1  // world Y = 16
	values[blockIndex(0, 15, 0)] = 1 // world Y = 31

	c := &Chunk{CX: 0, CZ: 0, Sections: []Section{
		buildSection(1, palette, values),
	}}
	hits := c.FindInArea("minecraft:diamond_ore", 16, 20)
	if len(hits) != 1 {
		t.Fatalf("len(hits) = %d, want 1", len(hits))
	}
	if hits[0].Y != 16 {
		t.Fatalf("hits[0].Y = %d, want 16", hits[0].Y)
	}
}

func TestFloorDivSectionYNegative(t *testing.T) {
	c := &Chunk{CX: 0, CZ: 0, Sections: []Section{
		buildSection(-4, []string{"minecraft:bedrock"}, nil),
	}}
	// world Y = -64 -> sectionY = floor(-64/16) = -4
	if got := c.Get(0, -64, 0); got != "minecraft:bedrock" {
		t.Fatalf("Get(y=-64) = %q, want minecraft:bedrock", got)
	}
	// world Y = -49 -> still sectionY -4 (floor(-49/16) = -4)
	if got := c.Get(0, -49, 0); got != "minecraft:bedrock" {
		t.Fatalf("Get(y=-49) = %q, want minecraft:bedrock", got)
	}
}

// TestParseSectionNegativeYByte locks down the unsigned-byte boundary: a
// producer that encoded Y as 200 (the unsigned reinterpretation of -56) must
// decode to the same section as one that stored -56 directly.
func TestParseSectionNegativeYByte(t *testing.T) {
	section := nbt.Compound{
		"Y": nbt.Tag{Type: nbt.TagByte, Value: byte(200)},
		"block_states": nbt.Tag{Type: nbt.TagCompound, Value: nbt.Compound{
			"palette": nbt.Tag{Type: nbt.TagList, Value: &nbt.List{
				ElemType: nbt.TagCompound,
				Values: []any{
					nbt.Compound{"Name": nbt.Tag{Type: nbt.TagString, Value: "minecraft:bedrock"}},
				},
			}},
		}},
	}

	sec, ok := parseSection(section)
	if !ok {
		t.Fatalf("parseSection returned ok=false")
	}
	if sec.SectionY != -56 {
		t.Fatalf("SectionY = %d, want -56", sec.SectionY)
	}
}
