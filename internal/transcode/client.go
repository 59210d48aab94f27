// Package transcode wraps the video transcoder collaborator. It assembles a
// frame sequence into a looping animation, truncates and re-times that
// animation to bound its size, and optionally converts it into a
// web-friendly video.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"turntable/internal/fileutil"
	"turntable/internal/services"
	"turntable/internal/toolrunner"
)

// EncodeSettings are the fixed animation assembly parameters for a run.
type EncodeSettings struct {
	// FrameRate is the animation frame rate.
	FrameRate int
	// ScaleWidth is the horizontal scale applied during assembly; height
	// follows proportionally.
	ScaleWidth int
	// CropFrames bounds the cropped animation to its first N frames.
	CropFrames int
	// CropRate re-times the cropped animation to this output rate.
	CropRate int
}

// Transcoder is the behaviour the Encode, Crop, and Transcode stages require.
type Transcoder interface {
	// EncodeAnimation assembles the glob-matched frames (lexical, i.e.
	// frame, order) into a looping animation at outPath.
	EncodeAnimation(ctx context.Context, framesDir, framePrefix, outPath string, settings EncodeSettings) error
	// CropAnimation truncates the animation to its first CropFrames frames
	// re-timed at CropRate.
	CropAnimation(ctx context.Context, inPath, outPath string, settings EncodeSettings) error
	// TranscodeVideo converts the animation into a padded, pixel-format
	// normalized video with the streaming start-up flag set.
	TranscodeVideo(ctx context.Context, inPath, outPath string) error
}

// Client invokes the configured transcoder binary.
type Client struct {
	binary string
	exec   toolrunner.Executor
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

// NewClient constructs a transcoder client for the given binary.
func NewClient(binary string, runner toolrunner.Runner, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("transcoder binary required")
	}
	client := &Client{binary: binary, exec: runner}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) EncodeAnimation(ctx context.Context, framesDir, framePrefix, outPath string, settings EncodeSettings) error {
	args := encodeArgs(framesDir, framePrefix, outPath, settings)
	return c.invoke(ctx, "encode", args, outPath)
}

func (c *Client) CropAnimation(ctx context.Context, inPath, outPath string, settings EncodeSettings) error {
	args := cropArgs(inPath, outPath, settings)
	return c.invoke(ctx, "crop", args, outPath)
}

func (c *Client) TranscodeVideo(ctx context.Context, inPath, outPath string) error {
	args := videoArgs(inPath, outPath)
	return c.invoke(ctx, "transcode", args, outPath)
}

func (c *Client) invoke(ctx context.Context, stage string, args []string, artifact string) error {
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, stage, "invoke transcoder", "transcoder failed", err)
	}
	if !fileutil.Exists(artifact) {
		return services.Wrap(services.ErrExternalTool, stage, "collect artifact",
			fmt.Sprintf("transcoder reported success but %s is absent", artifact), nil)
	}
	return nil
}

func encodeArgs(framesDir, framePrefix, outPath string, settings EncodeSettings) []string {
	pattern := filepath.Join(framesDir, framePrefix+"*.png")
	// transpose=1 applies the 90-degree clockwise rotation; -loop 0 loops
	// the animation forever.
	return []string{
		"-y",
		"-f", "image2",
		"-pattern_type", "glob",
		"-i", pattern,
		"-vf", fmt.Sprintf("scale=%d:-1,transpose=1", settings.ScaleWidth),
		"-r", strconv.Itoa(settings.FrameRate),
		"-loop", "0",
		outPath,
	}
}

func cropArgs(inPath, outPath string, settings EncodeSettings) []string {
	return []string{
		"-y",
		"-i", inPath,
		"-vf", fmt.Sprintf(`select=lt(n\,%d)`, settings.CropFrames),
		"-r", strconv.Itoa(settings.CropRate),
		outPath,
	}
}

func videoArgs(inPath, outPath string) []string {
	return []string{
		"-y",
		"-i", inPath,
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outPath,
	}
}
