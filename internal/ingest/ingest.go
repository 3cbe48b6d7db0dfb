// Package ingest turns a world export — a plain directory, or a .zip/.tar.gz
// archive of one — into a directory the resolver can scan, extracting
// archives to a temp dir first.
package ingest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

// Prepare resolves input to a usable world directory: if input is already a
// directory it's returned unchanged; if it's a regular file, it's treated
// as an archive and extracted under workDir (a caller-owned scratch
// directory, typically os.MkdirTemp), and the extracted root is returned.
func Prepare(ctx context.Context, input, workDir string) (string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return "", fmt.Errorf("ingest: stat %q: %w", input, err)
	}
	if info.IsDir() {
		return input, nil
	}
	if err := extractArchive(ctx, input, workDir); err != nil {
		return "", err
	}
	return workDir, nil
}

// extractArchive identifies input's archive format and extracts it into
// destPath, guarding against path traversal entries (a ".." segment that
// would escape destPath).
func extractArchive(ctx context.Context, archivePath, destPath string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("ingest: open archive %q: %w", archivePath, err)
	}
	defer archiveFile.Close()

	format, stream, err := archives.Identify(ctx, archivePath, archiveFile)
	if err != nil {
		return fmt.Errorf("ingest: identify archive format: %w", err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return fmt.Errorf("ingest: format %T does not support extraction", format)
	}

	if err := os.MkdirAll(destPath, 0o755); err != nil {
		return fmt.Errorf("ingest: create destination %q: %w", destPath, err)
	}

	err = extractor.Extract(ctx, stream, func(ctx context.Context, f archives.FileInfo) error {
		targetPath := filepath.Join(destPath, f.NameInArchive)
		cleanDest := filepath.Clean(destPath)
		cleanTarget := filepath.Clean(targetPath)
		if cleanTarget != cleanDest && !strings.HasPrefix(cleanTarget, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("ingest: illegal file path in archive: %s", f.NameInArchive)
		}

		if f.IsDir() {
			return os.MkdirAll(targetPath, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return fmt.Errorf("ingest: create parent dir: %w", err)
		}

		out, err := os.Create(targetPath)
		if err != nil {
			return fmt.Errorf("ingest: create %q: %w", targetPath, err)
		}
		defer out.Close()

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("ingest: open archive entry %q: %w", f.NameInArchive, err)
		}
		defer rc.Close()

		if _, err := io.Copy(out, rc); err != nil {
			return fmt.Errorf("ingest: extract %q: %w", targetPath, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ingest: extract archive: %w", err)
	}
	return nil
}

// FindWorldDir locates a directory named "world" (case-insensitive)
// containing a level.dat under root — the common layout inside a world
// export archive.
func FindWorldDir(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if strings.ToLower(d.Name()) != "world" {
			return nil
		}
		if _, statErr := os.Stat(filepath.Join(path, "level.dat")); statErr == nil {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && err != fs.SkipAll {
		return "", fmt.Errorf("ingest: walk %q: %w", root, err)
	}
	if found == "" {
		return "", fmt.Errorf("ingest: no world directory found under %q", root)
	}
	return found, nil
}
