package config

import "strings"

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.WorkRoot,
		&c.Paths.SandboxRoot,
		&c.Paths.ScratchRoot,
		&c.Paths.LogDir,
		&c.Paths.LedgerPath,
	} {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Tools.Renderer = strings.TrimSpace(c.Tools.Renderer)
	c.Tools.Detector = strings.TrimSpace(c.Tools.Detector)
	c.Tools.Transcoder = strings.TrimSpace(c.Tools.Transcoder)
	c.Render.ColorScheme = strings.TrimSpace(c.Render.ColorScheme)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
