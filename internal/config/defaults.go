package config

const (
	defaultSandboxRoot     = "~/.local/share/turntable/sandboxes"
	defaultScratchRoot     = "~/.local/share/turntable/scratch"
	defaultLogDir          = "~/.local/share/turntable/logs"
	defaultLedgerPath      = "~/.local/share/turntable/history.db"
	defaultRenderer        = "openscad"
	defaultDetector        = "scad-origin"
	defaultTranscoder      = "ffmpeg"
	defaultMinRendererYear = 2021
	defaultInvokeTimeout   = 1800
	defaultImageWidth      = 800
	defaultImageHeight     = 600
	defaultFrameCount      = 60
	defaultColorScheme     = "Cornfield"
	defaultCameraDistance  = 140
	defaultCameraFOV       = 22.5
	defaultFrameRate       = 20
	defaultScaleWidth      = 400
	defaultCropFrames      = 60
	defaultCropRate        = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultStaleMaxAge     = 24
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SandboxRoot: defaultSandboxRoot,
			ScratchRoot: defaultScratchRoot,
			LogDir:      defaultLogDir,
			LedgerPath:  defaultLedgerPath,
		},
		Tools: Tools{
			Renderer:        defaultRenderer,
			Detector:        defaultDetector,
			Transcoder:      defaultTranscoder,
			MinRendererYear: defaultMinRendererYear,
			InvokeTimeout:   defaultInvokeTimeout,
		},
		Render: Render{
			Width:          defaultImageWidth,
			Height:         defaultImageHeight,
			Frames:         defaultFrameCount,
			ColorScheme:    defaultColorScheme,
			CameraDistance: defaultCameraDistance,
			CameraFOV:      defaultCameraFOV,
		},
		Encode: Encode{
			FrameRate:  defaultFrameRate,
			ScaleWidth: defaultScaleWidth,
			CropFrames: defaultCropFrames,
			CropRate:   defaultCropRate,
		},
		Output: Output{
			Video: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Housekeeping: Housekeeping{
			StaleSandboxMaxAgeHours: defaultStaleMaxAge,
		},
	}
}
