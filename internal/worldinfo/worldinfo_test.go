package worldinfo

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// --- tiny hand-rolled NBT encoder, test-only (mirrors internal/nbt's) ---

type builder struct {
	buf bytes.Buffer
}

func (b *builder) u8(v byte) { b.buf.WriteByte(v) }
func (b *builder) u16(v int) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	b.buf.Write(tmp[:])
}
func (b *builder) i32(v int) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(int32(v)))
	b.buf.Write(tmp[:])
}
func (b *builder) i64(v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	b.buf.Write(tmp[:])
}
func (b *builder) str(s string) { b.u16(len(s)); b.buf.WriteString(s) }

func (b *builder) tagHeader(tagType byte, name string) {
	b.u8(tagType)
	b.str(name)
}
func (b *builder) byteTag(name string, v byte) {
	b.tagHeader(1, name)
	b.u8(v)
}
func (b *builder) intTag(name string, v int) {
	b.tagHeader(3, name)
	b.i32(v)
}
func (b *builder) longTag(name string, v int64) {
	b.tagHeader(4, name)
	b.i64(v)
}
func (b *builder) stringTag(name string, v string) {
	b.tagHeader(8, name)
	b.str(v)
}
func (b *builder) end() { b.u8(0) }

// buildLevelDat produces a root compound shaped like a vanilla level.dat:
// an unnamed root compound containing a "Data" compound with the fields
// Read() looks for.
func buildLevelDat() []byte {
	var b builder
	b.tagHeader(10, "") // root compound
	b.tagHeader(10, "Data")
	b.stringTag("LevelName", "My World")
	b.byteTag("hardcore", 1)
	b.intTag("DataVersion", 3700)
	b.tagHeader(10, "WorldGenSettings")
	b.longTag("seed", 123456789)
	b.end() // end WorldGenSettings
	b.intTag("SpawnX", 10)
	b.intTag("SpawnY", 70)
	b.intTag("SpawnZ", -5)
	b.stringTag("generatorName", "default")
	b.end() // end Data
	b.end() // end root
	return b.buf.Bytes()
}

func writeGzippedLevelDat(t *testing.T, worldDir string) {
	t.Helper()
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write(buildLevelDat()); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.WriteFile(filepath.Join(worldDir, "level.dat"), gz.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestReadParsesLevelDatFields(t *testing.T) {
	dir := t.TempDir()
	writeGzippedLevelDat(t, dir)

	info, err := Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.LevelName != "My World" {
		t.Errorf("LevelName = %q, want %q", info.LevelName, "My World")
	}
	if !info.Hardcore {
		t.Errorf("Hardcore = false, want true")
	}
	if info.DataVersion != 3700 {
		t.Errorf("DataVersion = %d, want 3700", info.DataVersion)
	}
	if info.Seed != 123456789 {
		t.Errorf("Seed = %d, want 123456789", info.Seed)
	}
	if info.SpawnX != 10 || info.SpawnY != 70 || info.SpawnZ != -5 {
		t.Errorf("Spawn = (%d,%d,%d), want (10,70,-5)", info.SpawnX, info.SpawnY, info.SpawnZ)
	}
	if info.GeneratorName != "default" {
		t.Errorf("GeneratorName = %q, want default", info.GeneratorName)
	}
	if info.MinY != -64 || info.MaxY != 320 {
		t.Errorf("Y bounds = (%d,%d), want (-64,320) for a modern DataVersion", info.MinY, info.MaxY)
	}
}

func TestReadPreModernDataVersionUsesOldYBounds(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	var b builder
	b.tagHeader(10, "")
	b.tagHeader(10, "Data")
	b.intTag("DataVersion", 1000)
	b.end()
	b.end()
	if err := os.WriteFile(filepath.Join(dir, "level.dat"), b.buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	info, err := Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.MinY != 0 || info.MaxY != 256 {
		t.Errorf("Y bounds = (%d,%d), want (0,256) for a pre-1.17 DataVersion", info.MinY, info.MaxY)
	}
}

func TestReadDetectsNetherAndEndDimensions(t *testing.T) {
	dir := t.TempDir()
	writeGzippedLevelDat(t, dir)
	if err := os.MkdirAll(filepath.Join(dir, "DIM-1", "region"), 0o755); err != nil {
		t.Fatalf("MkdirAll nether: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "DIM1", "region"), 0o755); err != nil {
		t.Fatalf("MkdirAll end: %v", err)
	}

	info, err := Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := map[string]bool{"overworld": true, "the_nether": true, "the_end": true}
	if len(info.Dimensions) != len(want) {
		t.Fatalf("Dimensions = %v, want 3 entries", info.Dimensions)
	}
	for _, d := range info.Dimensions {
		if !want[d] {
			t.Errorf("unexpected dimension %q", d)
		}
	}
}

func TestReadMissingLevelDatFails(t *testing.T) {
	dir := t.TempDir()
	if _, err := Read(dir); err == nil {
		t.Fatalf("expected error for missing level.dat")
	}
}
