package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.SandboxRoot == "" {
		return errors.New("paths.sandbox_root must be set")
	}
	if c.Paths.ScratchRoot == "" {
		return errors.New("paths.scratch_root must be set")
	}
	if c.Paths.SandboxRoot == c.Paths.ScratchRoot {
		return errors.New("paths.sandbox_root and paths.scratch_root must differ")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.Renderer == "" {
		return errors.New("tools.renderer must be set")
	}
	if c.Tools.Detector == "" {
		return errors.New("tools.detector must be set")
	}
	if c.Tools.Transcoder == "" {
		return errors.New("tools.transcoder must be set")
	}
	if c.Tools.MinRendererYear < 1000 || c.Tools.MinRendererYear > 9999 {
		return fmt.Errorf("tools.min_renderer_year must be a 4-digit year, got %d", c.Tools.MinRendererYear)
	}
	if c.Tools.InvokeTimeout < 0 {
		return errors.New("tools.invoke_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.width":  c.Render.Width,
		"render.height": c.Render.Height,
		"render.frames": c.Render.Frames,
	}); err != nil {
		return err
	}
	if c.Render.ColorScheme == "" {
		return errors.New("render.color_scheme must be set")
	}
	if c.Render.CameraDistance <= 0 {
		return errors.New("render.camera_distance must be positive")
	}
	if c.Render.CameraFOV <= 0 || c.Render.CameraFOV >= 180 {
		return errors.New("render.camera_fov must be between 0 and 180")
	}
	return nil
}

func (c *Config) validateEncode() error {
	return ensurePositiveMap(map[string]int{
		"encode.frame_rate":  c.Encode.FrameRate,
		"encode.scale_width": c.Encode.ScaleWidth,
		"encode.crop_frames": c.Encode.CropFrames,
		"encode.crop_rate":   c.Encode.CropRate,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	return nil
}
