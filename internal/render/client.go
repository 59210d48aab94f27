// Package render wraps the 3D renderer collaborator. It drives two renderer
// modes: centering (emit a translated copy of a model) and animation (emit an
// ordered frame sequence over a full rotation), and gates both behind a
// minimum reported version.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"turntable/internal/detect"
	"turntable/internal/fileutil"
	"turntable/internal/services"
	"turntable/internal/toolrunner"
)

// Settings are the fixed rendering parameters for a run.
type Settings struct {
	Width          int
	Height         int
	Frames         int
	ColorScheme    string
	CameraDistance float64
	CameraFOV      float64
}

// Renderer is the behaviour the Center and RenderFrames stages require.
type Renderer interface {
	// CheckVersion fails with an incompatible-version error when the
	// renderer reports a year below minYear.
	CheckVersion(ctx context.Context, minYear int) error
	// Center produces a centered copy of the model at outPath by applying
	// the translation derived from offsets.
	Center(ctx context.Context, modelPath string, offsets detect.OffsetVector, outPath string) error
	// Animate produces the frame sequence for one full rotation about the
	// vertical axis. outPattern names the target image; frames land beside
	// it with the renderer's frame numbering. Returns the ordered frames.
	Animate(ctx context.Context, modelPath, outPattern string, settings Settings) ([]string, error)
}

var versionYearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Client invokes the configured renderer binary.
type Client struct {
	binary string
	exec   toolrunner.Executor

	versionOnce sync.Once
	versionYear int
	versionErr  error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec toolrunner.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// NewClient constructs a renderer client for the given binary.
func NewClient(binary string, runner toolrunner.Runner, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("renderer binary required")
	}
	client := &Client{binary: binary, exec: runner}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Version reports the 4-digit year in the renderer's version string. The
// probe runs once; later calls return the cached result.
func (c *Client) Version(ctx context.Context) (int, error) {
	c.versionOnce.Do(func() {
		out, err := c.exec.Output(ctx, c.binary, []string{"--version"})
		if err != nil {
			c.versionErr = services.Wrap(services.ErrExternalTool, "", "probe renderer version", "renderer --version failed", err)
			return
		}
		match := versionYearPattern.FindString(out)
		if match == "" {
			c.versionErr = services.Wrap(services.ErrToolVersion, "", "probe renderer version",
				fmt.Sprintf("no 4-digit year in version output %q", strings.TrimSpace(out)), nil)
			return
		}
		c.versionYear, _ = strconv.Atoi(match)
	})
	return c.versionYear, c.versionErr
}

func (c *Client) CheckVersion(ctx context.Context, minYear int) error {
	year, err := c.Version(ctx)
	if err != nil {
		return err
	}
	if year < minYear {
		return services.Wrap(services.ErrToolVersion, "", "version gate",
			fmt.Sprintf("renderer reports %d, minimum supported is %d", year, minYear), nil)
	}
	return nil
}

// Center writes a wrapper model applying the centering translation and
// renders it to outPath.
func (c *Client) Center(ctx context.Context, modelPath string, offsets detect.OffsetVector, outPath string) error {
	wrapper := filepath.Join(filepath.Dir(modelPath), "center-"+strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))+".scad")
	body := fmt.Sprintf("tx = 0;\nty = 0;\ntz = 0;\ntranslate([tx, ty, tz]) include <%s>;\n", filepath.Base(modelPath))
	if err := os.WriteFile(wrapper, []byte(body), 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "center", "write wrapper model", "", err)
	}

	tx, ty, tz := offsets.Translation()
	args := centerArgs(wrapper, outPath, tx, ty, tz)
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "center", "invoke renderer", "centering render failed", err)
	}
	if !fileutil.Exists(outPath) {
		return services.Wrap(services.ErrExternalTool, "center", "collect artifact",
			fmt.Sprintf("renderer reported success but %s is absent", outPath), nil)
	}
	return nil
}

// Animate writes a rotation wrapper around the centered model and renders the
// full frame sequence.
func (c *Client) Animate(ctx context.Context, modelPath, outPattern string, settings Settings) ([]string, error) {
	wrapper := filepath.Join(filepath.Dir(modelPath), "turn-"+strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))+".scad")
	body := fmt.Sprintf("rotate([0, 0, 360 * $t]) import(%q);\n", filepath.Base(modelPath))
	if err := os.WriteFile(wrapper, []byte(body), 0o644); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "render-frames", "write wrapper model", "", err)
	}

	args := animateArgs(wrapper, outPattern, settings)
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "render-frames", "invoke renderer", "animation render failed", err)
	}

	frames, err := collectFrames(outPattern)
	if err != nil {
		return nil, err
	}
	if len(frames) != settings.Frames {
		return frames, services.Wrap(services.ErrExternalTool, "render-frames", "collect artifacts",
			fmt.Sprintf("expected %d frames, found %d", settings.Frames, len(frames)), nil)
	}
	return frames, nil
}

func centerArgs(wrapperPath, outPath string, tx, ty, tz float64) []string {
	return []string{
		"-o", outPath,
		"-D", fmt.Sprintf("tx=%s", formatCoord(tx)),
		"-D", fmt.Sprintf("ty=%s", formatCoord(ty)),
		"-D", fmt.Sprintf("tz=%s", formatCoord(tz)),
		wrapperPath,
	}
}

func animateArgs(wrapperPath, outPattern string, settings Settings) []string {
	return []string{
		"-o", outPattern,
		"--animate", strconv.Itoa(settings.Frames),
		"--imgsize", fmt.Sprintf("%d,%d", settings.Width, settings.Height),
		"--camera", fmt.Sprintf("0,0,0,60,0,45,%s", formatCoord(settings.CameraDistance)),
		"--fov", formatCoord(settings.CameraFOV),
		"--projection", "perspective",
		"--colorscheme", settings.ColorScheme,
		wrapperPath,
	}
}

// collectFrames globs the numbered frames the renderer wrote for outPattern
// ("dir/name.png" yields "dir/name*.png") in lexical, i.e. frame, order.
func collectFrames(outPattern string) ([]string, error) {
	ext := filepath.Ext(outPattern)
	stem := strings.TrimSuffix(outPattern, ext)
	frames, err := filepath.Glob(stem + "*" + ext)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "render-frames", "collect artifacts", "bad frame glob", err)
	}
	// Exclude the unnumbered pattern path itself if the renderer created it.
	filtered := frames[:0]
	for _, frame := range frames {
		if frame == outPattern {
			continue
		}
		filtered = append(filtered, frame)
	}
	sort.Strings(filtered)
	return filtered, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
