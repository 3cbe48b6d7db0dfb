// Package region decodes the Minecraft region-file container (.mca): an
// 8 KiB header of per-chunk location/timestamp entries followed by
// 4096-byte-aligned compressed chunk frames. It produces RawChunk byte
// payloads; NBT parsing of those payloads is internal/nbt's job.
package region

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/go-mc-tools/chunkanalyzer/pkg/coord"
)

const (
	sectorSize   = 4096
	headerSize   = 2 * sectorSize
	chunksPerDim = 32 // chunks per axis within one region file
	slotCount    = chunksPerDim * chunksPerDim
)

const (
	compressionGzip         = 1
	compressionZlib         = 2
	compressionUncompressed = 3
)

// RawChunk is a decompressed, not-yet-NBT-parsed chunk payload, or an absent
// slot. It is an immutable value discarded once the NBT reader and chunk
// analyzer have materialized the Chunk it describes.
type RawChunk struct {
	CX, CZ  int
	Present bool
	Data    []byte

	// Offset and Count are the raw location-table sector values,
	// kept around so the header can be re-derived byte-for-byte and so
	// internal/cache can persist a region's location table without
	// re-reading the file.
	Offset, Count uint32
}

// RawRegion is the decoded contents of one .mca file: 1024 slots addressed
// by absolute chunk coordinate.
type RawRegion struct {
	RX, RZ    int
	Dimension coord.Dimension
	Chunks    map[coord.TwoDimCord]RawChunk
}

// Get returns the slot for an absolute chunk coordinate, or (RawChunk{}, false)
// if it falls outside this region.
func (r *RawRegion) Get(cx, cz int) (RawChunk, bool) {
	c, ok := r.Chunks[coord.TwoDimCord{X: cx, Z: cz}]
	return c, ok
}

// EncodeLocations rebuilds the 4096-byte location table from a parsed
// RawRegion's per-slot Offset/Count — re-encoding what Parse decoded must
// yield the original bytes exactly.
func (r *RawRegion) EncodeLocations() []byte {
	out := make([]byte, sectorSize)
	for i := 0; i < slotCount; i++ {
		cx := r.RX*chunksPerDim + i%chunksPerDim
		cz := r.RZ*chunksPerDim + i/chunksPerDim
		c, ok := r.Chunks[coord.TwoDimCord{X: cx, Z: cz}]
		if !ok {
			continue
		}
		entry := c.Offset<<8 | (c.Count & 0xFF)
		binary.BigEndian.PutUint32(out[i*4:i*4+4], entry)
	}
	return out
}

var filenamePattern = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// ParseFilename extracts (rx, rz) from the conventional "r.<rx>.<rz>.mca" name.
func ParseFilename(name string) (rx, rz int, err error) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, &MalformedFilenameError{Name: name}
	}
	rx, _ = strconv.Atoi(m[1])
	rz, _ = strconv.Atoi(m[2])
	return rx, rz, nil
}

// Filename builds the conventional "r.<rx>.<rz>.mca" name for a region
// coordinate — the inverse of ParseFilename.
func Filename(rx, rz int) string {
	return fmt.Sprintf("r.%d.%d.mca", rx, rz)
}

// Parse decodes a region file's raw bytes into a RawRegion. A bad individual
// chunk slot never aborts the parse: it is recorded in the returned error
// slice as a *CorruptChunkError or *UnsupportedCompressionError and the slot
// is left absent. Parse itself only fails if the header can't be read at
// all (data shorter than the 8 KiB header).
func Parse(data []byte, rx, rz int, dim coord.Dimension) (*RawRegion, []error) {
	if len(data) < headerSize {
		return nil, []error{&CorruptRegionError{Cause: fmt.Errorf("file is %d bytes, shorter than the %d byte header", len(data), headerSize)}}
	}
	return parse(data, data[:sectorSize], rx, rz, dim)
}

// ParseWithLocationTable decodes a region file the same way Parse does, but
// takes the 4096-byte location table from elsewhere (internal/cache, keyed
// by the file's path/mtime/size) instead of re-reading and re-decoding it
// from data — the caller already knows it's unchanged since the last parse.
// Chunk frames are still read from data at the offsets the table specifies.
func ParseWithLocationTable(data, locationTable []byte, rx, rz int, dim coord.Dimension) (*RawRegion, []error) {
	if len(locationTable) != sectorSize {
		return nil, []error{&CorruptRegionError{Cause: fmt.Errorf("cached location table is %d bytes, want %d", len(locationTable), sectorSize)}}
	}
	if len(data) < headerSize {
		return nil, []error{&CorruptRegionError{Cause: fmt.Errorf("file is %d bytes, shorter than the %d byte header", len(data), headerSize)}}
	}
	return parse(data, locationTable, rx, rz, dim)
}

func parse(data, locationTable []byte, rx, rz int, dim coord.Dimension) (*RawRegion, []error) {
	reg := &RawRegion{
		RX:        rx,
		RZ:        rz,
		Dimension: dim,
		Chunks:    make(map[coord.TwoDimCord]RawChunk, slotCount),
	}
	var failures []error

	for i := 0; i < slotCount; i++ {
		cx := rx*chunksPerDim + i%chunksPerDim
		cz := rz*chunksPerDim + i/chunksPerDim
		key := coord.TwoDimCord{X: cx, Z: cz}

		entry := binary.BigEndian.Uint32(locationTable[i*4 : i*4+4])
		offset := entry >> 8
		count := entry & 0xFF
		if offset == 0 || count == 0 {
			reg.Chunks[key] = RawChunk{CX: cx, CZ: cz, Present: false, Offset: offset, Count: count}
			continue
		}

		start := int(offset) * sectorSize
		end := start + int(count)*sectorSize
		if start < headerSize || end > len(data) {
			failures = append(failures, &CorruptChunkError{CX: cx, CZ: cz, Cause: fmt.Errorf("frame [%d:%d) out of bounds (file is %d bytes)", start, end, len(data))})
			reg.Chunks[key] = RawChunk{CX: cx, CZ: cz, Present: false, Offset: offset, Count: count}
			continue
		}
		frame := data[start:end]

		raw, err := decodeFrame(frame, cx, cz)
		if err != nil {
			failures = append(failures, err)
			reg.Chunks[key] = RawChunk{CX: cx, CZ: cz, Present: false, Offset: offset, Count: count}
			continue
		}
		reg.Chunks[key] = RawChunk{CX: cx, CZ: cz, Present: true, Data: raw, Offset: offset, Count: count}
	}

	return reg, failures
}

// decodeFrame reads the 4-byte length + 1-byte compression-type header of a
// chunk frame and decompresses the payload it describes.
func decodeFrame(frame []byte, cx, cz int) ([]byte, error) {
	if len(frame) < 5 {
		return nil, &CorruptChunkError{CX: cx, CZ: cz, Cause: fmt.Errorf("frame is %d bytes, shorter than its 5 byte header", len(frame))}
	}
	length := binary.BigEndian.Uint32(frame[0:4])
	compressionType := frame[4]

	if length == 0 {
		return nil, &CorruptChunkError{CX: cx, CZ: cz, Cause: fmt.Errorf("declared payload length is zero")}
	}
	payloadEnd := 5 + int(length) - 1
	if payloadEnd > len(frame) {
		return nil, &CorruptChunkError{CX: cx, CZ: cz, Cause: fmt.Errorf("declared length %d exceeds frame capacity %d", length, len(frame)-5+1)}
	}
	payload := frame[5:payloadEnd]

	switch compressionType {
	case compressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, &CorruptChunkError{CX: cx, CZ: cz, Cause: err}
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, &CorruptChunkError{CX: cx, CZ: cz, Cause: err}
		}
		return out, nil
	case compressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, &CorruptChunkError{CX: cx, CZ: cz, Cause: err}
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, &CorruptChunkError{CX: cx, CZ: cz, Cause: err}
		}
		return out, nil
	case compressionUncompressed:
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	default:
		return nil, &UnsupportedCompressionError{CX: cx, CZ: cz, Type: compressionType}
	}
}
