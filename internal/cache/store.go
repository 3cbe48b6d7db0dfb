// Package cache persists per-region-file metadata in sqlite via gorm, keyed
// by (path, mtime, size), so a repeat query over an unchanged region file
// can skip re-reading its header and re-probing compression types.
package cache

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/go-mc-tools/chunkanalyzer/internal/region"
)

type Store struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if absent) a sqlite database at dbPath and
// migrates its schema.
func NewSQLiteStore(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&RegionEntry{}); err != nil {
		return err
	}
	return s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_region_entries_path ON region_entries(path)`).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Lookup returns the cached entry for path if present and still fresh
// (mtime and size unchanged); a stale or missing entry reports ok=false so
// the caller falls back to re-parsing the file.
func (s *Store) Lookup(path string, mtimeUnixNanos, size int64) (*RegionEntry, bool, error) {
	var entry RegionEntry
	err := s.db.Where("path = ?", path).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: lookup %q: %w", path, err)
	}
	if entry.MTimeUnixNanos != mtimeUnixNanos || entry.Size != size {
		return nil, false, nil
	}
	return &entry, true, nil
}

// Put upserts a region's cached metadata, keyed by path.
func (s *Store) Put(entry *RegionEntry) error {
	return s.db.Where("path = ?", entry.Path).
		Assign(RegionEntry{
			MTimeUnixNanos: entry.MTimeUnixNanos,
			Size:           entry.Size,
			LocationTable:  entry.LocationTable,
			Presence:       entry.Presence,
		}).
		FirstOrCreate(&RegionEntry{Path: entry.Path}).Error
}

// EvictStale removes cache rows whose path no longer matches any of
// knownPaths — called after a rescan to drop rows for region files that
// were deleted or renamed.
func (s *Store) EvictStale(knownPaths []string) error {
	if len(knownPaths) == 0 {
		return s.db.Exec("DELETE FROM region_entries").Error
	}
	return s.db.Where("path NOT IN ?", knownPaths).Delete(&RegionEntry{}).Error
}

// BuildPresenceBitmap encodes a parsed RawRegion's per-slot presence as a
// 128-byte bitmap (1024 slots, 1 = present), for storage alongside its
// location table.
func BuildPresenceBitmap(reg *region.RawRegion) []byte {
	bitmap := make([]byte, 128)
	for i := 0; i < 1024; i++ {
		cx := reg.RX*32 + i%32
		cz := reg.RZ*32 + i/32
		c, ok := reg.Get(cx, cz)
		if ok && c.Present {
			bitmap[i/8] |= 1 << uint(i%8)
		}
	}
	return bitmap
}

// PresenceAt reports whether bitmap (as built by BuildPresenceBitmap) marks
// slot i present.
func PresenceAt(bitmap []byte, i int) bool {
	if i < 0 || i/8 >= len(bitmap) {
		return false
	}
	return bitmap[i/8]&(1<<uint(i%8)) != 0
}
