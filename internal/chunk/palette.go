package chunk

import "math/bits"

const airName = "minecraft:air"

// calculateBitsPerBlock is bits_per_block = max(4, ceil_log2(palette_len)).
// A palette of 0 or 1 entries still reports 4 — it's never used to
// index data in that case (single_block / empty-palette take their own
// fast paths) but the formula stays total.
func calculateBitsPerBlock(paletteLen int) int {
	if paletteLen <= 1 {
		return 4
	}
	b := bits.Len(uint(paletteLen - 1))
	if b < 4 {
		return 4
	}
	return b
}

// extractBlockID decodes the packed palette index at block-index idx
// (idx = y*256 + z*16 + x). Only the modern packing is supported: no index
// straddles a word boundary, and the top 64 mod bitsPerBlock bits of each
// word are unused; older cross-word layouts are not detected. An
// out-of-range word is air-safe: it returns (0, false) rather than
// panicking, and callers treat false as "minecraft:air". The returned id is
// not checked against the palette length; callers do that.
func extractBlockID(data []int64, bitsPerBlock, idx int) (id int, ok bool) {
	blocksPerLong := 64 / bitsPerBlock
	word := idx / blocksPerLong
	if word < 0 || word >= len(data) {
		return 0, false
	}
	bitOffset := (idx % blocksPerLong) * bitsPerBlock
	mask := int64(1)<<uint(bitsPerBlock) - 1
	id64 := (data[word] >> uint(bitOffset)) & mask
	return int(id64), true
}

// blockIndex maps section-local coordinates to the packed-data index used by
// extractBlockID. x, z must be in [0,16); y is section-local [0,16).
func blockIndex(x, y, z int) int {
	return y*256 + z*16 + x
}
