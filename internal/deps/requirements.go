package deps

import "turntable/internal/config"

// Requirements builds the tool checklist for the given configuration. Both
// the run preflight and the CLI deps command use this to keep the lists in
// sync.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{
			Name:        "Renderer",
			Command:     cfg.Tools.Renderer,
			Description: "Centers models and renders turntable frames",
		},
		{
			Name:        "Origin detector",
			Command:     cfg.Tools.Detector,
			Description: "Computes the model centering offsets",
		},
		{
			Name:        "Transcoder",
			Command:     cfg.Tools.Transcoder,
			Description: "Assembles frames into animations and video",
		},
	}
}
