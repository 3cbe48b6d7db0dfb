package cache

import "time"

// RegionEntry is one cached region file's metadata: enough to skip
// re-reading its 8 KiB header and re-running compression-type detection on
// a repeat query, as long as the file's mtime and size haven't changed.
type RegionEntry struct {
	ID             uint   `gorm:"primaryKey"`
	Path           string `gorm:"uniqueIndex;size:1024"`
	MTimeUnixNanos int64
	Size           int64
	LocationTable  []byte // the 4096-byte location table, verbatim
	Presence       []byte // 1024-bit (128-byte) bitmap, 1 = chunk slot present
	UpdatedAt      time.Time
}
