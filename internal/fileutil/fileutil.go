// Package fileutil provides the small set of filesystem operations the
// pipeline performs itself: ingest copies, artifact exchange across the
// sandbox boundary, and publishing outputs next to the source model.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// CopyFile streams src to dst. Used for ingest and for staging artifacts
// across the sandbox boundary, where a downstream stage re-checks the result.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyFileVerified copies src to dst and then re-reads dst, confirming the
// bytes that landed on disk hash identically to the source stream. Publish
// uses this so a truncated artifact never appears next to the source model.
// dst is removed on any mismatch.
func CopyFileVerified(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	srcHash := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHash))
	if err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}

	dstSum, size, err := hashFile(dst)
	if err != nil {
		os.Remove(dst)
		return err
	}
	if size != written {
		os.Remove(dst)
		return fmt.Errorf("published %d bytes, source stream had %d", size, written)
	}
	if !bytes.Equal(dstSum, srcHash.Sum(nil)) {
		os.Remove(dst)
		return errors.New("published artifact does not match its source")
	}
	return nil
}

func hashFile(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, err
	}
	return h.Sum(nil), size, nil
}

// CopyGlob copies every file in srcDir matching pattern into dstDir,
// preserving base names. Matches are copied in lexical order so frame
// sequences keep their ordering. Returns the copied destination paths.
func CopyGlob(srcDir, pattern, dstDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(srcDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(matches)

	copied := make([]string, 0, len(matches))
	for _, src := range matches {
		info, err := os.Stat(src)
		if err != nil {
			return copied, err
		}
		if info.IsDir() {
			continue
		}
		dst := filepath.Join(dstDir, filepath.Base(src))
		if err := CopyFile(src, dst); err != nil {
			return copied, fmt.Errorf("copy %s: %w", filepath.Base(src), err)
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
