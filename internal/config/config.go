package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"turntable/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// WorkRoot is the default scan root when the run command receives no
	// positional argument.
	WorkRoot    string `toml:"work_root"`
	SandboxRoot string `toml:"sandbox_root"`
	ScratchRoot string `toml:"scratch_root"`
	LogDir      string `toml:"log_dir"`
	LedgerPath  string `toml:"ledger_path"`
}

// Tools contains the collaborator binaries and their shared invocation limits.
type Tools struct {
	Renderer   string `toml:"renderer"`
	Detector   string `toml:"detector"`
	Transcoder string `toml:"transcoder"`
	// MinRendererYear is the 4-digit year the renderer version string must
	// report at minimum.
	MinRendererYear int `toml:"min_renderer_year"`
	// InvokeTimeout bounds every collaborator invocation, in seconds.
	// Zero disables the limit.
	InvokeTimeout int `toml:"invoke_timeout"`
}

// Render contains turntable rendering parameters.
type Render struct {
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	Frames         int     `toml:"frames"`
	ColorScheme    string  `toml:"color_scheme"`
	CameraDistance float64 `toml:"camera_distance"`
	CameraFOV      float64 `toml:"camera_fov"`
}

// Encode contains animation assembly parameters.
type Encode struct {
	FrameRate  int `toml:"frame_rate"`
	ScaleWidth int `toml:"scale_width"`
	CropFrames int `toml:"crop_frames"`
	CropRate   int `toml:"crop_rate"`
}

// Output controls which artifacts a run publishes and the failure policy.
type Output struct {
	Video             bool `toml:"video"`
	KeepGIF           bool `toml:"keep_gif"`
	ContinueOnFailure bool `toml:"continue_on_failure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Housekeeping contains stale resource cleanup settings.
type Housekeeping struct {
	// StaleSandboxMaxAgeHours: sandboxes and scratch directories older than
	// this are swept before a run. Zero disables the sweep.
	StaleSandboxMaxAgeHours int `toml:"stale_sandbox_max_age_hours"`
}

// Config encapsulates all configuration values for turntable. It is resolved
// once at startup and treated as immutable for the run.
type Config struct {
	Paths        Paths        `toml:"paths"`
	Tools        Tools        `toml:"tools"`
	Render       Render       `toml:"render"`
	Encode       Encode       `toml:"encode"`
	Output       Output       `toml:"output"`
	Logging      Logging      `toml:"logging"`
	Housekeeping Housekeeping `toml:"housekeeping"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/turntable/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved path, the third whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "", "open config", "", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "", "parse config", "", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "", "normalize config", "", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "", "validate config", "", err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("turntable.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs before any item is
// processed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.SandboxRoot, c.Paths.ScratchRoot, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if ledger := strings.TrimSpace(c.Paths.LedgerPath); ledger != "" {
		if err := os.MkdirAll(filepath.Dir(ledger), 0o755); err != nil {
			return fmt.Errorf("create ledger directory %q: %w", filepath.Dir(ledger), err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
