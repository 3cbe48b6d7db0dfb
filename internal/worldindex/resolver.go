// Package worldindex maps a rectangular area of chunk coordinates to the set
// of region files that cover it, reads each with internal/region, and
// returns the RawChunks that fall within the requested area (plus a
// one-chunk margin used by neighbor-aware downstream operations). A region
// file that can't be read is skipped and reported in the returned failure
// list; it never aborts the query.
package worldindex

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/go-mc-tools/chunkanalyzer/internal/cache"
	"github.com/go-mc-tools/chunkanalyzer/internal/region"
	"github.com/go-mc-tools/chunkanalyzer/pkg/coord"
)

const neighborMargin = 1

// RegionRange returns the inclusive range of region coordinates covering
// area, by floor-dividing its chunk-coordinate corners by 32.
func RegionRange(area coord.Corners) (rxMin, rxMax, rzMin, rzMax int) {
	return floorDiv(area.XMin, 32), floorDiv(area.XMax, 32), floorDiv(area.ZMin, 32), floorDiv(area.ZMax, 32)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// CandidateFilenames lists the "r.<rx>.<rz>.mca" names covering area.
func CandidateFilenames(area coord.Corners) []string {
	rxMin, rxMax, rzMin, rzMax := RegionRange(area)
	var names []string
	for rx := rxMin; rx <= rxMax; rx++ {
		for rz := rzMin; rz <= rzMax; rz++ {
			names = append(names, region.Filename(rx, rz))
		}
	}
	return names
}

// findRegionFiles recursively scans root for .mca files whose name is a
// candidate, returning candidate name -> full path. Casing must match
// exactly; the filesystem walk never follows symlinked directories.
func findRegionFiles(root string, candidates map[string]bool) (map[string]string, error) {
	found := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// A single unreadable directory entry doesn't abort the walk;
			// it's surfaced as a lookup gap (the file is simply not found).
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if candidates[name] {
			found[name] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Result is one successfully-read region file's contribution to a query.
type Result struct {
	Path   string
	Region *region.RawRegion
	Chunks []region.RawChunk // filtered to area expanded by one chunk margin
}

// ResolveArea locates every region file under dimensionRoot covering area,
// parses each, and returns the RawChunks within area expanded by a
// one-chunk margin. Region files are read in parallel, capped at
// workerLimit concurrent reads (workerLimit <= 0 means unlimited); ctx
// cancellation stops scheduling new reads but lets in-flight ones finish.
// Per-region and per-chunk failures are collected, never fatal to the query.
//
// store, if non-nil, is consulted before parsing each region's header and
// populated afterward: a hit with a matching mtime/size lets the parse skip
// re-decoding the location table, and a miss is backfilled via store.Put so
// the next call over an unchanged file is a hit.
func ResolveArea(ctx context.Context, dimensionRoot string, dim coord.Dimension, area coord.Corners, store *cache.Store, workerLimit int) ([]Result, []error) {
	candidateNames := CandidateFilenames(area)
	candidateSet := make(map[string]bool, len(candidateNames))
	for _, n := range candidateNames {
		candidateSet[n] = true
	}

	found, err := findRegionFiles(dimensionRoot, candidateSet)
	if err != nil {
		return nil, []error{&IOError{Path: dimensionRoot, Cause: err}}
	}

	expanded := area.Expand(neighborMargin)

	var (
		mu       sync.Mutex
		results  []Result
		failures []error
	)

	g, gctx := errgroup.WithContext(ctx)
	if workerLimit > 0 {
		g.SetLimit(workerLimit)
	}
	for name, path := range found {
		name, path := name, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}

			rx, rz, err := region.ParseFilename(name)
			if err != nil {
				mu.Lock()
				failures = append(failures, &IOError{Path: path, Cause: err})
				mu.Unlock()
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				mu.Lock()
				failures = append(failures, &IOError{Path: path, Cause: err})
				mu.Unlock()
				return nil
			}

			reg, regionFailures := parseWithCache(store, path, data, rx, rz, dim)
			mu.Lock()
			defer mu.Unlock()
			for _, f := range regionFailures {
				failures = append(failures, f)
			}
			if reg == nil {
				return nil
			}

			var kept []region.RawChunk
			for _, c := range reg.Chunks {
				if c.Present && expanded.Contains(c.CX, c.CZ) {
					kept = append(kept, c)
				}
			}
			results = append(results, Result{Path: path, Region: reg, Chunks: kept})
			return nil
		})
	}
	// errgroup's error is always nil here (no Go call returns a non-nil
	// error); failures are threaded through the mutex-guarded slice instead
	// so one bad region never cancels the others.
	_ = g.Wait()

	return results, failures
}

// parseWithCache parses one region file's bytes, consulting store (if any)
// for a cached location table keyed by path/mtime/size before falling back
// to a cold region.Parse, and backfilling store on a miss.
func parseWithCache(store *cache.Store, path string, data []byte, rx, rz int, dim coord.Dimension) (*region.RawRegion, []error) {
	if store == nil {
		return region.Parse(data, rx, rz, dim)
	}

	fi, statErr := os.Stat(path)
	if statErr != nil {
		return region.Parse(data, rx, rz, dim)
	}
	mtimeUnixNanos := fi.ModTime().UnixNano()
	size := fi.Size()

	if entry, ok, err := store.Lookup(path, mtimeUnixNanos, size); err == nil && ok {
		return region.ParseWithLocationTable(data, entry.LocationTable, rx, rz, dim)
	}

	reg, failures := region.Parse(data, rx, rz, dim)
	if reg != nil {
		if err := store.Put(&cache.RegionEntry{
			Path:           path,
			MTimeUnixNanos: mtimeUnixNanos,
			Size:           size,
			LocationTable:  reg.EncodeLocations(),
			Presence:       cache.BuildPresenceBitmap(reg),
		}); err != nil {
			failures = append(failures, &IOError{Path: path, Cause: err})
		}
	}
	return reg, failures
}
