package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"turntable/internal/config"
	"turntable/internal/detect"
	"turntable/internal/fileutil"
	"turntable/internal/logging"
	"turntable/internal/render"
	"turntable/internal/sandbox"
	"turntable/internal/scope"
	"turntable/internal/services"
	"turntable/internal/transcode"
	"turntable/internal/workitem"
)

// Runner drives one work item through the stage chain inside its own
// execution scope.
type Runner struct {
	cfg        *config.Config
	provider   sandbox.Provider
	detector   detect.Detector
	renderer   render.Renderer
	transcoder transcode.Transcoder
	logger     *slog.Logger
}

// NewRunner wires the stage collaborators together.
func NewRunner(cfg *config.Config, provider sandbox.Provider, detector detect.Detector, renderer render.Renderer, transcoder transcode.Transcoder, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "new runner", "configuration required", nil)
	}
	if provider == nil || detector == nil || renderer == nil || transcoder == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "new runner", "all collaborators required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		provider:   provider,
		detector:   detector,
		renderer:   renderer,
		transcoder: transcoder,
		logger:     logger,
	}, nil
}

// itemState carries the artifact paths one stage deposits for the next.
type itemState struct {
	item workitem.Item
	sc   *scope.Scope

	ingestedModel string
	offsets       detect.OffsetVector
	centeredModel string
	frames        []string
	animation     string
	cropped       string
	video         string
}

// ProcessItem runs the full stage chain for item. It returns the last stage
// that started, so callers can report where a failure happened. The item's
// scope is always released before returning; a cleanup failure is logged as a
// warning and never masks the stage outcome.
func (r *Runner) ProcessItem(ctx context.Context, item workitem.Item) (last Stage, err error) {
	ctx = services.WithItem(ctx, item.Base)

	sc, err := scope.Open(ctx, r.provider, r.cfg.Paths.ScratchRoot, item)
	if err != nil {
		return "", err
	}
	ctx = services.WithScopeID(ctx, sc.ID)
	defer func() {
		if cleanupErr := sc.Close(); cleanupErr != nil {
			logging.WithContext(ctx, r.logger).Warn("scope cleanup incomplete", logging.Error(cleanupErr))
		}
	}()

	state := &itemState{item: item, sc: sc}
	for _, stage := range Chain(r.cfg.Output.Video) {
		last = stage
		if err := r.runStage(ctx, stage, state); err != nil {
			return last, err
		}
	}
	return last, nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage, state *itemState) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrStage, string(stage), "start stage", "run interrupted", err)
	}

	ctx = services.WithStage(ctx, string(stage))
	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("stage started")
	started := time.Now()

	var err error
	switch stage {
	case StageIngest:
		err = r.ingest(state)
	case StageDetectOrigin:
		err = r.detectOrigin(ctx, state)
	case StageCenter:
		err = r.center(ctx, state)
	case StageRenderFrames:
		err = r.renderFrames(ctx, state)
	case StageEncode:
		err = r.encode(ctx, state)
	case StageCrop:
		err = r.crop(ctx, state)
	case StageTranscode:
		err = r.transcodeVideo(ctx, state)
	case StagePublish:
		err = r.publish(state)
	default:
		err = services.Wrap(services.ErrStage, string(stage), "dispatch", "unknown stage", nil)
	}
	if err != nil {
		logger.Error("stage failed", logging.Error(err), logging.Duration("elapsed", time.Since(started)))
		return err
	}
	logger.Debug("stage completed", logging.Duration("elapsed", time.Since(started)))
	return nil
}

// ingest copies the raw model into the input sandbox.
func (r *Runner) ingest(state *itemState) error {
	dst := filepath.Join(state.sc.Input.Path, filepath.Base(state.item.SourcePath))
	if err := fileutil.CopyFile(state.item.SourcePath, dst); err != nil {
		return services.Wrap(services.ErrStage, string(StageIngest), "copy model", "stage input unavailable", err)
	}
	state.ingestedModel = dst
	return nil
}

// detectOrigin runs the origin detector over the ingested model and parses
// the offsets artifact it writes into the scratch directory.
func (r *Runner) detectOrigin(ctx context.Context, state *itemState) error {
	artifact := filepath.Join(state.sc.Scratch, "offsets.env")
	offsets, err := r.detector.Detect(ctx, state.ingestedModel, artifact)
	if err != nil {
		return err
	}
	state.offsets = offsets
	return nil
}

// center produces the centered model in the output sandbox, then copies it
// into scratch where the animation stage reads it.
func (r *Runner) center(ctx context.Context, state *itemState) error {
	sanitized := workitem.SanitizeSegment(state.item.Base)
	rendered := filepath.Join(state.sc.Output.Path, sanitized+"-centered.stl")
	if err := r.renderer.Center(ctx, state.ingestedModel, state.offsets, rendered); err != nil {
		return err
	}
	scratchCopy := filepath.Join(state.sc.Scratch, sanitized+"-centered.stl")
	if err := fileutil.CopyFileVerified(rendered, scratchCopy); err != nil {
		return services.Wrap(services.ErrStage, string(StageCenter), "stage centered model", "copy into scratch failed", err)
	}
	state.centeredModel = scratchCopy
	return nil
}

// renderFrames verifies the renderer version, then renders the full-rotation
// frame sequence into the output sandbox.
func (r *Runner) renderFrames(ctx context.Context, state *itemState) error {
	if err := r.renderer.CheckVersion(ctx, r.cfg.Tools.MinRendererYear); err != nil {
		return err
	}
	outPattern := filepath.Join(state.sc.Output.Path, state.item.FramePrefix()+".png")
	frames, err := r.renderer.Animate(ctx, state.centeredModel, outPattern, render.Settings{
		Width:          r.cfg.Render.Width,
		Height:         r.cfg.Render.Height,
		Frames:         r.cfg.Render.Frames,
		ColorScheme:    r.cfg.Render.ColorScheme,
		CameraDistance: r.cfg.Render.CameraDistance,
		CameraFOV:      r.cfg.Render.CameraFOV,
	})
	if err != nil {
		return err
	}
	state.frames = frames
	return nil
}

// encode moves the frame sequence across the sandbox boundary and assembles
// it into the looping animation.
func (r *Runner) encode(ctx context.Context, state *itemState) error {
	prefix := state.item.FramePrefix()
	copied, err := fileutil.CopyGlob(state.sc.Output.Path, prefix+"*.png", state.sc.Input.Path)
	if err != nil {
		return services.Wrap(services.ErrStage, string(StageEncode), "stage frames", "copy into input sandbox failed", err)
	}
	if len(copied) != len(state.frames) {
		return services.Wrap(services.ErrStage, string(StageEncode), "stage frames",
			fmt.Sprintf("expected %d frames, staged %d", len(state.frames), len(copied)), nil)
	}
	out := filepath.Join(state.sc.Output.Path, workitem.SanitizeSegment(state.item.Base)+".gif")
	if err := r.transcoder.EncodeAnimation(ctx, state.sc.Input.Path, prefix, out, r.encodeSettings()); err != nil {
		return err
	}
	state.animation = out
	return nil
}

// crop bounds the animation to its leading frames at the fixed output rate.
func (r *Runner) crop(ctx context.Context, state *itemState) error {
	out := filepath.Join(state.sc.Output.Path, workitem.SanitizeSegment(state.item.Base)+"-short.gif")
	if err := r.transcoder.CropAnimation(ctx, state.animation, out, r.encodeSettings()); err != nil {
		return err
	}
	state.cropped = out
	return nil
}

func (r *Runner) transcodeVideo(ctx context.Context, state *itemState) error {
	out := filepath.Join(state.sc.Output.Path, workitem.SanitizeSegment(state.item.Base)+".mov")
	if err := r.transcoder.TranscodeVideo(ctx, state.cropped, out); err != nil {
		return err
	}
	state.video = out
	return nil
}

// publish copies the finished artifacts next to the source model. When video
// output is enabled and the animation is not kept, the published animation is
// removed only after the video copy has been verified.
func (r *Runner) publish(state *itemState) error {
	animationDst := state.item.AnimationPath()
	if err := fileutil.CopyFileVerified(state.cropped, animationDst); err != nil {
		return services.Wrap(services.ErrStage, string(StagePublish), "publish animation", "copy to item directory failed", err)
	}
	if !r.cfg.Output.Video {
		return nil
	}
	if err := fileutil.CopyFileVerified(state.video, state.item.VideoPath()); err != nil {
		return services.Wrap(services.ErrStage, string(StagePublish), "publish video", "copy to item directory failed", err)
	}
	if !r.cfg.Output.KeepGIF {
		if err := os.Remove(animationDst); err != nil {
			return services.Wrap(services.ErrStage, string(StagePublish), "remove animation", "drop intermediate artifact failed", err)
		}
	}
	return nil
}

func (r *Runner) encodeSettings() transcode.EncodeSettings {
	return transcode.EncodeSettings{
		FrameRate:  r.cfg.Encode.FrameRate,
		ScaleWidth: r.cfg.Encode.ScaleWidth,
		CropFrames: r.cfg.Encode.CropFrames,
		CropRate:   r.cfg.Encode.CropRate,
	}
}
