// Package workitem defines the immutable description of one discovered input
// model and its derived output paths.
package workitem

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Item identifies one input model file. Created by discovery, consumed
// read-only by the pipeline.
type Item struct {
	// SourcePath is the absolute path of the input model.
	SourcePath string
	// Dir is the directory containing the input model; outputs publish here.
	Dir string
	// Base is the file name without extension.
	Base string
}

// New builds an Item from an input path. The path is made absolute so items
// stay valid if the process working directory changes mid-run.
func New(path string) (Item, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Item{}, fmt.Errorf("resolve input path %q: %w", path, err)
	}
	base := filepath.Base(abs)
	return Item{
		SourcePath: abs,
		Dir:        filepath.Dir(abs),
		Base:       strings.TrimSuffix(base, filepath.Ext(base)),
	}, nil
}

// AnimationPath is where the looping animation artifact publishes.
func (i Item) AnimationPath() string {
	return filepath.Join(i.Dir, i.Base+".gif")
}

// VideoPath is where the video artifact publishes when video output is enabled.
func (i Item) VideoPath() string {
	return filepath.Join(i.Dir, i.Base+".mov")
}

// FramePrefix is the shared frame name prefix unique to this item. The
// encoder globs on it, so it must never collide with another item's frames
// even if sandboxes are briefly shared.
func (i Item) FramePrefix() string {
	return SanitizeSegment(i.Base) + "-turn"
}

// SanitizeSegment strips characters that are unsafe in sandbox or artifact
// names and collapses whitespace to dashes.
func SanitizeSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "item"
	}
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "",
		"\"", "", "<", "", ">", "", "|", "",
	)
	value = replacer.Replace(value)
	value = strings.Join(strings.Fields(value), "-")
	value = strings.Trim(value, "-_.")
	if value == "" {
		return "item"
	}
	return value
}
