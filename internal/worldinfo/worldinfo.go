// Package worldinfo reads level.dat world metadata — seed, spawn point,
// data version, and which dimensions are present — feeding sensible
// default query bounds for a caller driving a surface projection.
package worldinfo

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-mc-tools/chunkanalyzer/internal/nbt"
)

// Info is the subset of level.dat metadata a caller of this analyzer needs:
// enough to pick sensible default query bounds without re-parsing NBT itself.
type Info struct {
	LevelName     string
	Hardcore      bool
	Seed          int64
	SpawnX        int
	SpawnY        int
	SpawnZ        int
	GeneratorName string
	DataVersion   int
	Dimensions    []string // "overworld", "the_nether", "the_end" — whichever subdirectories exist
	MinY          int
	MaxY          int
}

// Read parses worldDir/level.dat (gzip-compressed NBT, per the vanilla
// format) and detects which dimension subdirectories exist on disk.
func Read(worldDir string) (*Info, error) {
	levelPath := filepath.Join(worldDir, "level.dat")

	raw, err := os.ReadFile(levelPath)
	if err != nil {
		return nil, fmt.Errorf("worldinfo: read %q: %w", levelPath, err)
	}

	data, err := decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("worldinfo: decompress %q: %w", levelPath, err)
	}

	root, err := nbt.ReadFull(data)
	if err != nil {
		return nil, fmt.Errorf("worldinfo: parse NBT: %w", err)
	}
	rootCompound, err := nbt.RootCompound(root)
	if err != nil {
		return nil, fmt.Errorf("worldinfo: %w", err)
	}

	dataCompound, ok := rootCompound.GetCompound("Data")
	if !ok {
		return nil, fmt.Errorf("worldinfo: level.dat missing Data compound")
	}

	info := &Info{MinY: -64, MaxY: 320}

	if name, ok := dataCompound.GetString("LevelName"); ok {
		info.LevelName = name
	}
	if hardcore, ok := dataCompound.GetByte("hardcore"); ok {
		info.Hardcore = hardcore != 0
	}
	if dv, ok := dataCompound.GetInt("DataVersion"); ok {
		info.DataVersion = int(dv)
		if info.DataVersion < 2724 { // pre-1.17: no negative-Y overworld
			info.MinY, info.MaxY = 0, 256
		}
	}

	if wgs, ok := dataCompound.GetCompound("WorldGenSettings"); ok {
		if seed, ok := wgs.GetLong("seed"); ok {
			info.Seed = seed
		}
	} else if seed, ok := dataCompound.GetLong("RandomSeed"); ok {
		info.Seed = seed
	}

	if x, ok := dataCompound.GetInt("SpawnX"); ok {
		info.SpawnX = int(x)
	}
	if y, ok := dataCompound.GetInt("SpawnY"); ok {
		info.SpawnY = int(y)
	}
	if z, ok := dataCompound.GetInt("SpawnZ"); ok {
		info.SpawnZ = int(z)
	}

	if gen, ok := dataCompound.GetString("generatorName"); ok {
		info.GeneratorName = gen
	}

	info.Dimensions = detectDimensions(worldDir)

	return info, nil
}

func detectDimensions(worldDir string) []string {
	dims := []string{"overworld"}
	if isDir(filepath.Join(worldDir, "DIM-1", "region")) {
		dims = append(dims, "the_nether")
	}
	if isDir(filepath.Join(worldDir, "DIM1", "region")) {
		dims = append(dims, "the_end")
	}
	return dims
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// decompress strips a gzip wrapper if present; some level.dat files (and
// all test fixtures) may already be raw NBT.
func decompress(raw []byte) ([]byte, error) {
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw, nil
	}
	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
