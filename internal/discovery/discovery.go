// Package discovery scans a root directory for eligible input models and
// produces the ordered work list for a run.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"turntable/internal/services"
	"turntable/internal/workitem"
)

// ModelExtension is the input file extension a scan considers eligible.
const ModelExtension = ".scad"

// Scan walks root recursively and returns one Item per eligible model file.
// Ordering is stable across repeated enumeration: items sort by source path.
// An empty result is an error, not a silent no-op; an accidental empty
// directory is a user-visible mistake.
func Scan(root string) ([]workitem.Item, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat scan root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %q is not a directory", root)
	}

	items := make([]workitem.Item, 0, 16)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			// Hidden directories hold editor state and caches, never models.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ModelExtension) {
			return nil
		}
		item, err := workitem.New(path)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", root, err)
	}

	if len(items) == 0 {
		return nil, services.Wrap(services.ErrNoInput, "", "scan",
			fmt.Sprintf("no %s files found under %s", ModelExtension, root), nil)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].SourcePath < items[j].SourcePath })
	return items, nil
}
