package region

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/go-mc-tools/chunkanalyzer/pkg/coord"
)

// regionBuilder assembles a synthetic .mca byte buffer: an 8 KiB header
// followed by sector-aligned chunk frames, mirroring the on-disk layout.
type regionBuilder struct {
	header [headerSize]byte
	body   []byte // sectors following the header, already 4096-aligned
}

func newRegionBuilder() *regionBuilder {
	return &regionBuilder{}
}

// putChunk compresses payload with the given compression type and places it
// in the next free sector range, updating the slot's location entry.
func (b *regionBuilder) putChunk(slot int, payload []byte, compressionType byte) {
	var compressed []byte
	switch compressionType {
	case compressionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write(payload)
		zw.Close()
		compressed = buf.Bytes()
	case compressionZlib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		zw.Write(payload)
		zw.Close()
		compressed = buf.Bytes()
	case compressionUncompressed:
		compressed = payload
	}

	frame := make([]byte, 5+len(compressed))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(compressed)+1))
	frame[4] = compressionType
	copy(frame[5:], compressed)

	sectorsNeeded := (len(frame) + sectorSize - 1) / sectorSize
	if sectorsNeeded == 0 {
		sectorsNeeded = 1
	}
	paddedLen := sectorsNeeded * sectorSize
	padded := make([]byte, paddedLen)
	copy(padded, frame)

	offsetSectors := headerSize/sectorSize + len(b.body)/sectorSize
	b.body = append(b.body, padded...)

	entry := uint32(offsetSectors)<<8 | uint32(sectorsNeeded)
	binary.BigEndian.PutUint32(b.header[slot*4:slot*4+4], entry)
}

func (b *regionBuilder) bytes() []byte {
	out := make([]byte, 0, headerSize+len(b.body))
	out = append(out, b.header[:]...)
	out = append(out, b.body...)
	return out
}

func TestParseRoundTripsCompressionKinds(t *testing.T) {
	cases := []struct {
		name string
		kind byte
	}{
		{"gzip", compressionGzip},
		{"zlib", compressionZlib},
		{"uncompressed", compressionUncompressed},
	}

	payload := bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 100)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newRegionBuilder()
			b.putChunk(0, payload, tc.kind)
			data := b.bytes()

			reg, failures := Parse(data, 0, 0, coord.Overworld)
			if len(failures) != 0 {
				t.Fatalf("unexpected failures: %v", failures)
			}
			chunk, ok := reg.Get(0, 0)
			if !ok || !chunk.Present {
				t.Fatalf("chunk (0,0) missing")
			}
			if !bytes.Equal(chunk.Data, payload) {
				t.Fatalf("decoded payload mismatch for %s", tc.name)
			}
		})
	}
}

func TestParseGzipAndZlibAgree(t *testing.T) {
	payload := []byte("identical chunk content across both compression kinds")

	gz := newRegionBuilder()
	gz.putChunk(0, payload, compressionGzip)
	zl := newRegionBuilder()
	zl.putChunk(0, payload, compressionZlib)

	regGz, failG := Parse(gz.bytes(), 0, 0, coord.Overworld)
	regZl, failZ := Parse(zl.bytes(), 0, 0, coord.Overworld)
	if len(failG) != 0 || len(failZ) != 0 {
		t.Fatalf("unexpected failures: %v / %v", failG, failZ)
	}

	cg, _ := regGz.Get(0, 0)
	cz, _ := regZl.Get(0, 0)
	if !bytes.Equal(cg.Data, cz.Data) {
		t.Fatalf("gzip and zlib decoded bytes differ")
	}
}

func TestParseAbsentSlot(t *testing.T) {
	b := newRegionBuilder()
	data := b.bytes()

	reg, failures := Parse(data, 0, 0, coord.Overworld)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	chunk, ok := reg.Get(0, 0)
	if !ok {
		t.Fatalf("expected an absent slot entry, found none")
	}
	if chunk.Present {
		t.Fatalf("expected slot to be absent")
	}
}

func TestParseUnsupportedCompressionIsolated(t *testing.T) {
	b := newRegionBuilder()
	b.putChunk(0, []byte("ok"), compressionUncompressed)
	// corrupt slot 1 with an unknown compression type, placed by hand.
	frame := make([]byte, 5+2)
	binary.BigEndian.PutUint32(frame[0:4], 3)
	frame[4] = 99 // unsupported
	copy(frame[5:], []byte("zz"))
	padded := make([]byte, sectorSize)
	copy(padded, frame)
	offsetSectors := headerSize/sectorSize + len(b.body)/sectorSize
	b.body = append(b.body, padded...)
	entry := uint32(offsetSectors)<<8 | uint32(1)
	binary.BigEndian.PutUint32(b.header[1*4:1*4+4], entry)

	data := b.bytes()
	reg, failures := Parse(data, 0, 0, coord.Overworld)

	if len(failures) != 1 {
		t.Fatalf("expected exactly 1 failure, got %d: %v", len(failures), failures)
	}
	if _, ok := failures[0].(*UnsupportedCompressionError); !ok {
		t.Fatalf("failures[0] = %T, want *UnsupportedCompressionError", failures[0])
	}

	// The good slot must still be readable — one bad slot doesn't poison the region.
	good, ok := reg.Get(0, 0)
	if !ok || !good.Present {
		t.Fatalf("good slot (0,0) should still be present")
	}
	bad, ok := reg.Get(1, 0)
	if !ok || bad.Present {
		t.Fatalf("bad slot (1,0) should be marked absent, not present")
	}
}

func TestParseTruncatedFileIsCorruptRegion(t *testing.T) {
	_, failures := Parse(make([]byte, 100), 0, 0, coord.Overworld)
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if _, ok := failures[0].(*CorruptRegionError); !ok {
		t.Fatalf("failures[0] = %T, want *CorruptRegionError", failures[0])
	}
}

func TestEncodeLocationsRoundTrips(t *testing.T) {
	b := newRegionBuilder()
	b.putChunk(0, []byte("first"), compressionUncompressed)
	b.putChunk(5, []byte("second, a bit longer than the first payload"), compressionGzip)
	b.putChunk(1023, []byte("last slot"), compressionZlib)
	data := b.bytes()

	reg, failures := Parse(data, 3, -7, coord.Overworld)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}

	wantHeader := data[:sectorSize]
	gotHeader := reg.EncodeLocations()
	if !bytes.Equal(gotHeader, wantHeader) {
		t.Fatalf("re-encoded location table differs from original")
	}
}

func TestParseFilename(t *testing.T) {
	rx, rz, err := ParseFilename("r.-2.5.mca")
	if err != nil {
		t.Fatalf("ParseFilename: %v", err)
	}
	if rx != -2 || rz != 5 {
		t.Fatalf("got (%d, %d), want (-2, 5)", rx, rz)
	}

	if _, _, err := ParseFilename("not-a-region.txt"); err == nil {
		t.Fatalf("expected error for malformed filename")
	}
}

func TestChunkCoordinateMapping(t *testing.T) {
	b := newRegionBuilder()
	// slot 33 = i%32=1, i/32=1 -> local chunk (1,1) within region (2,-1)
	b.putChunk(33, []byte("marker"), compressionUncompressed)
	data := b.bytes()

	reg, failures := Parse(data, 2, -1, coord.Overworld)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	chunk, ok := reg.Get(2*32+1, -1*32+1)
	if !ok || !chunk.Present {
		t.Fatalf("expected chunk at absolute coord (65, -31) to be present")
	}
	if string(chunk.Data) != "marker" {
		t.Fatalf("chunk data = %q, want %q", chunk.Data, "marker")
	}
}
