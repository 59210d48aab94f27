package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"turntable/internal/config"
	"turntable/internal/detect"
	"turntable/internal/discovery"
	"turntable/internal/ledger"
	"turntable/internal/logging"
	"turntable/internal/pipeline"
	"turntable/internal/preflight"
	"turntable/internal/render"
	"turntable/internal/sandbox"
	"turntable/internal/services"
	"turntable/internal/toolrunner"
	"turntable/internal/transcode"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var debug bool
	var keepGIF bool
	var noVideo bool
	var continueOnFailure bool

	cmd := &cobra.Command{
		Use:   "run [root]",
		Short: "Render turntable previews for every model under root",
		Long: "Scans root (default: configured work_root, else the current directory) for\n" +
			"model files and produces a preview animation, and optionally a video, next\n" +
			"to each one.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Flag overrides are folded in here; the config is immutable
			// for the rest of the run.
			if keepGIF {
				cfg.Output.KeepGIF = true
			}
			if noVideo {
				cfg.Output.Video = false
			}
			if continueOnFailure {
				cfg.Output.ContinueOnFailure = true
			}

			root, err := resolveScanRoot(cfg, args)
			if err != nil {
				return err
			}
			return runBatch(cmd, ctx, cfg, root, debug)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Process at most one item, for fast iteration")
	cmd.Flags().BoolVar(&keepGIF, "keep-gif", false, "Retain the animation alongside the video")
	cmd.Flags().BoolVar(&noVideo, "no-video", false, "Skip video transcoding, publish the animation only")
	cmd.Flags().BoolVar(&continueOnFailure, "continue-on-failure", false, "Record failed items and keep going instead of aborting the batch")
	return cmd
}

func resolveScanRoot(cfg *config.Config, args []string) (string, error) {
	root := ""
	if len(args) == 1 {
		root = strings.TrimSpace(args[0])
	}
	if root == "" {
		root = cfg.Paths.WorkRoot
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		root = cwd
	}
	expanded, err := config.ExpandPath(root)
	if err != nil {
		return "", fmt.Errorf("resolve scan root: %w", err)
	}
	return expanded, nil
}

func runBatch(cmd *cobra.Command, cmdCtx *commandContext, cfg *config.Config, root string, debug bool) error {
	ctx := cmd.Context()

	logger, err := logging.New(logging.Options{
		Level:  cmdCtx.logLevel(cfg),
		Format: cfg.Logging.Format,
		LogDir: cfg.Paths.LogDir,
	})
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "", "configure logging", "", err)
	}

	// The lock lives in the sandbox root so two runs sharing sandboxes are
	// serialized even when their log directories differ.
	lock := flock.New(filepath.Join(cfg.Paths.SandboxRoot, "turntable.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "", "acquire run lock", "", err)
	}
	if !locked {
		return services.Wrap(services.ErrConfiguration, "", "acquire run lock", "another run is already active", nil)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("release run lock", logging.Error(unlockErr))
		}
	}()

	sweepStale(ctx, cfg, logger)

	runner := toolrunner.New(cfg.Tools.InvokeTimeout)
	detector, err := detect.NewClient(cfg.Tools.Detector, runner)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "", "configure detector", "", err)
	}
	renderer, err := render.NewClient(cfg.Tools.Renderer, runner)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "", "configure renderer", "", err)
	}
	transcoder, err := transcode.NewClient(cfg.Tools.Transcoder, runner)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "", "configure transcoder", "", err)
	}

	logger.Info("host", logging.String("summary", preflight.DescribeHost().String()))
	checks := preflight.RunAll(ctx, cfg, versionGate{renderer: renderer, minYear: cfg.Tools.MinRendererYear})
	for _, check := range checks {
		if check.Passed {
			logger.Debug("preflight check passed", logging.String("check", check.Name), logging.String("detail", check.Detail))
			continue
		}
		logger.Error("preflight check failed", logging.String("check", check.Name), logging.String("detail", check.Detail))
	}
	if failed := preflight.Failed(checks); len(failed) > 0 {
		marker := services.ErrConfiguration
		for _, check := range checks {
			if !check.Passed && check.Name == "Renderer version" {
				marker = services.ErrToolVersion
			}
		}
		return services.Wrap(marker, "", "preflight", strings.Join(failed, ", "), nil)
	}

	items, err := discovery.Scan(root)
	if err != nil {
		return err
	}
	logger.Info("discovered items", logging.Int("count", len(items)), logging.String("root", root))

	provider, err := sandbox.NewDirProvider(cfg.Paths.SandboxRoot)
	if err != nil {
		return err
	}
	itemRunner, err := pipeline.NewRunner(cfg, provider, detector, renderer, transcoder, logger)
	if err != nil {
		return err
	}

	var store *ledger.Store
	if cfg.Paths.LedgerPath != "" {
		store, err = ledger.Open(cfg.Paths.LedgerPath)
		if err != nil {
			logger.Warn("run history disabled", logging.Error(err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	batch := &pipeline.Batch{
		Processor:         itemRunner,
		Store:             store,
		Logger:            logger,
		ProgressWriter:    cmd.OutOrStdout(),
		Debug:             debug,
		ContinueOnFailure: cfg.Output.ContinueOnFailure,
	}

	summary, runErr := batch.Run(ctx, items)
	printSummary(cmd, summary)
	return runErr
}

// versionGate binds the configured minimum year to the renderer client for
// the preflight contract.
type versionGate struct {
	renderer *render.Client
	minYear  int
}

func (g versionGate) CheckVersion(ctx context.Context) error {
	return g.renderer.CheckVersion(ctx, g.minYear)
}

// sweepStale removes leftovers from interrupted runs so fresh sandboxes never
// collide with occupied names.
func sweepStale(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	maxAge := time.Duration(cfg.Housekeeping.StaleSandboxMaxAgeHours) * time.Hour
	for _, root := range []string{cfg.Paths.SandboxRoot, cfg.Paths.ScratchRoot} {
		result := sandbox.CleanStale(ctx, root, maxAge, logger)
		if len(result.Removed) > 0 {
			logger.Info("removed stale directories",
				logging.String("root", root),
				logging.Int("count", len(result.Removed)))
		}
		for _, cleanupErr := range result.Errors {
			logger.Warn("stale directory sweep failed",
				logging.String("path", cleanupErr.Path),
				logging.Error(cleanupErr.Error))
		}
	}
}
