package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/gallerypipe"
	"github.com/five82/gallerypipe/internal/config"
	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/logging"
	"github.com/five82/gallerypipe/internal/metrics"
	"github.com/five82/gallerypipe/internal/reporter"
	"github.com/five82/gallerypipe/internal/util"
)

// processFlags holds the process command flags. Only flags the user
// actually sets override the configuration file.
type processFlags struct {
	workRoot        string
	maxWidth        int
	maxHeight       int
	bitrate         string
	frameRate       int
	codec           string
	quality         string
	thumbnailOffset float64
	previewStart    float64
	previewDuration float64
	concurrency     int
	maxInputMB      int64
	stageOriginal   bool
	noValidate      bool

	jsonOutput  bool
	eventsFile  string
	metricsFile string
	logDir      string
	noLog       bool
}

func newProcessCommand(g *globalOptions) *cobra.Command {
	f := &processFlags{}
	defaults := config.NewConfig()

	cmd := &cobra.Command{
		Use:   "process <file|dir>...",
		Short: "Process video files into gallery artifacts",
		Long: `Process video files into gallery artifacts.

Each input produces compressed/<name>.mp4, thumbnails/<name>.jpg and
previews/<name>.mp4 under <work-root>/<run id>. Directories contribute
every video file they contain. A failed input leaves no files behind and
does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, g, f, args)
		},
	}

	o := defaults.Options
	flags := cmd.Flags()
	flags.StringVarP(&f.workRoot, "work-root", "w", defaults.WorkRoot, "Directory that receives one subdirectory per run")
	flags.IntVar(&f.maxWidth, "max-width", o.MaxWidth, "Maximum width of the compressed copy")
	flags.IntVar(&f.maxHeight, "max-height", o.MaxHeight, "Maximum height of the compressed copy")
	flags.StringVar(&f.bitrate, "bitrate", o.TargetBitrate, "Bitrate cap of the compressed copy (e.g. 2M, 800k)")
	flags.IntVar(&f.frameRate, "fps", o.FrameRate, "Frame rate cap of the compressed copy")
	flags.StringVar(&f.codec, "codec", o.Codec.String(), "Codec of the compressed copy (h264 or h265)")
	flags.StringVarP(&f.quality, "quality", "q", o.Quality.String(), "Quality preset (high, medium or low)")
	flags.Float64Var(&f.thumbnailOffset, "thumbnail-offset", o.ThumbnailOffsetSecs, "Seconds into the video to take the thumbnail from")
	flags.Float64Var(&f.previewStart, "preview-start", o.PreviewStartSecs, "Preview clip start in seconds")
	flags.Float64Var(&f.previewDuration, "preview-duration", o.PreviewDurationSecs, "Preview clip length in seconds")
	flags.IntVarP(&f.concurrency, "concurrency", "j", defaults.Concurrency, "Number of inputs processed at once")
	flags.Int64Var(&f.maxInputMB, "max-input-mb", defaults.MaxInputBytes/(1<<20), "Reject inputs larger than this many MiB")
	flags.BoolVar(&f.stageOriginal, "stage-original", false, "Copy each input into its run directory first")
	flags.BoolVar(&f.noValidate, "no-validate", false, "Skip probing the finished artifacts")

	flags.BoolVar(&f.jsonOutput, "json", false, "Write NDJSON events to stdout instead of terminal output")
	flags.StringVar(&f.eventsFile, "events-file", "", "Also append NDJSON events to this file")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
	flags.StringVarP(&f.logDir, "log-dir", "l", "", "Log directory (defaults to WORK_ROOT/logs)")
	flags.BoolVar(&f.noLog, "no-log", false, "Disable log file creation")

	return cmd
}

// apply overlays the flags the user set onto cfg.
func (f *processFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := func(name string) bool {
		return cmd.Flags().Changed(name)
	}
	o := &cfg.Options

	if changed("work-root") {
		cfg.WorkRoot = f.workRoot
	}
	if changed("max-width") {
		o.MaxWidth = f.maxWidth
	}
	if changed("max-height") {
		o.MaxHeight = f.maxHeight
	}
	if changed("bitrate") {
		o.TargetBitrate = f.bitrate
	}
	if changed("fps") {
		o.FrameRate = f.frameRate
	}
	if changed("codec") {
		codec, err := config.ParseCodec(f.codec)
		if err != nil {
			return err
		}
		o.Codec = codec
	}
	if changed("quality") {
		quality, err := config.ParseQuality(f.quality)
		if err != nil {
			return err
		}
		o.Quality = quality
	}
	if changed("thumbnail-offset") {
		o.ThumbnailOffsetSecs = f.thumbnailOffset
	}
	if changed("preview-start") {
		o.PreviewStartSecs = f.previewStart
	}
	if changed("preview-duration") {
		o.PreviewDurationSecs = f.previewDuration
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("max-input-mb") {
		cfg.MaxInputBytes = f.maxInputMB << 20
	}
	if changed("stage-original") {
		cfg.StageOriginal = f.stageOriginal
	}
	if changed("no-validate") {
		cfg.ValidateOutputs = !f.noValidate
	}
	return nil
}

func runProcess(cmd *cobra.Command, g *globalOptions, f *processFlags, args []string) error {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := f.apply(cmd, cfg); err != nil {
		return err
	}

	logDir := f.logDir
	if logDir == "" {
		logDir = filepath.Join(cfg.WorkRoot, "logs")
	}
	logFile, err := logging.Setup(logDir, f.noLog)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger, err := g.initLogging(logFile.Writer())
	if err != nil {
		return err
	}

	files, err := gallerypipe.FindVideos(args)
	if err != nil {
		return err
	}
	inputs := make([]gallerypipe.Input, len(files))
	for i, path := range files {
		inputs[i] = gallerypipe.Input{Path: path}
	}

	opts := []gallerypipe.Option{
		gallerypipe.WithConfig(cfg),
		gallerypipe.WithLogger(logger.Logger),
	}
	if f.metricsFile != "" {
		opts = append(opts, gallerypipe.WithMetrics(metrics.NewPipelineObserver()))
	}
	pipe, err := gallerypipe.New(opts...)
	if err != nil {
		return err
	}

	rep, closeEvents, err := newReporter(cmd, f)
	if err != nil {
		return err
	}
	defer closeEvents()

	info := util.GetSystemInfo()
	logging.Info("starting",
		"version", appVersion,
		"inputs", len(inputs),
		"concurrency", cfg.Concurrency,
		"work_root", cfg.WorkRoot,
		"codec", cfg.Options.Codec.String(),
		"quality", cfg.Options.Quality.String(),
		"log_file", logFile.FilePath(),
		"cpus", info.NumCPU,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := pipe.ProcessBatchWithReporter(ctx, inputs, pipe.Options(), rep, nil)

	if f.metricsFile != "" {
		if err := metrics.WriteTextfile(f.metricsFile); err != nil {
			logging.Warn("failed to write metrics", "path", f.metricsFile, "error", err)
		}
	}

	if !f.jsonOutput && summary.Total > 1 {
		fmt.Fprintln(cmd.OutOrStdout(), renderResults(inputs, summary))
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if summary.Failed > 0 {
		logging.Error("batch finished with failures", "failed", summary.Failed, "total", summary.Total)
		return fmt.Errorf("%d of %d inputs failed", summary.Failed, summary.Total)
	}
	return nil
}

// newReporter picks NDJSON when asked to or when stdout is not a terminal,
// and fans out to an events file when one is configured.
func newReporter(cmd *cobra.Command, f *processFlags) (reporter.Reporter, func(), error) {
	out := cmd.OutOrStdout()

	var primary reporter.Reporter
	if f.jsonOutput || !isTerminal(out) {
		f.jsonOutput = true
		primary = reporter.NewJSONReporterWithWriter(out)
	} else {
		primary = reporter.NewTerminalReporterWithWriters(out, cmd.ErrOrStderr())
	}

	if f.eventsFile == "" {
		return primary, func() {}, nil
	}
	file, err := os.OpenFile(f.eventsFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, coreerrors.NewFileSystemError("open events file", f.eventsFile, err)
	}
	rep := reporter.NewCompositeReporter(primary, reporter.NewJSONReporterWithWriter(file))
	return rep, func() { _ = file.Close() }, nil
}

// renderResults tabulates a batch, one row per input in input order.
func renderResults(inputs []gallerypipe.Input, summary gallerypipe.BatchSummary) string {
	failures := make(map[int]error, len(summary.Errors))
	for _, itemErr := range summary.Errors {
		failures[itemErr.Index] = itemErr.Err
	}

	rows := make([][]string, 0, len(inputs))
	for i, in := range inputs {
		if err, failed := failures[i]; failed {
			rows = append(rows, []string{in.ID(), failureLabel(err), "", ""})
			continue
		}
		result := summary.Results[i]
		if result == nil {
			continue
		}
		original, _ := util.GetFileSize(in.Path)
		rows = append(rows, []string{
			in.ID(),
			"ok",
			util.FormatBytes(result.Compressed.SizeBytes),
			fmt.Sprintf("%.1f%%", util.CalculateSizeReduction(original, result.Compressed.SizeBytes)),
		})
	}

	return renderTable(
		[]string{"Input", "Result", "Compressed", "Reduction"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	)
}

func failureLabel(err error) string {
	var runErr *gallerypipe.RunError
	kind, ok := coreerrors.KindOf(err)
	switch {
	case ok && errors.As(err, &runErr):
		return fmt.Sprintf("%s (%s)", kind, runErr.State)
	case ok:
		return kind.String()
	default:
		return "failed"
	}
}
