package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stage identifies one step of the per-item state machine. The zero value
// means no stage has started yet.
type Stage string

const (
	StageIngest       Stage = "ingest"
	StageDetectOrigin Stage = "detect-origin"
	StageCenter       Stage = "center"
	StageRenderFrames Stage = "render-frames"
	StageEncode       Stage = "encode"
	StageCrop         Stage = "crop"
	StageTranscode    Stage = "transcode"
	StagePublish      Stage = "publish"
)

// Chain returns the ordered stage list for one item. The transcode stage is
// present only when video output is enabled.
func Chain(video bool) []Stage {
	stages := []Stage{
		StageIngest,
		StageDetectOrigin,
		StageCenter,
		StageRenderFrames,
		StageEncode,
		StageCrop,
	}
	if video {
		stages = append(stages, StageTranscode)
	}
	return append(stages, StagePublish)
}

var titleCaser = cases.Title(language.English)

// Label renders the stage name for user-facing output.
func (s Stage) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(s), "-", " "))
}
