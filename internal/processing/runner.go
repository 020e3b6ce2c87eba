// Package processing runs the media pipeline: one input through probe,
// encode, thumbnail and preview (Runner), or many inputs on a bounded
// worker pool (RunBatch).
package processing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/five82/gallerypipe/internal/config"
	"github.com/five82/gallerypipe/internal/encode"
	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/logging"
	"github.com/five82/gallerypipe/internal/media"
	"github.com/five82/gallerypipe/internal/reporter"
	"github.com/five82/gallerypipe/internal/thumbnail"
	"github.com/five82/gallerypipe/internal/util"
	"github.com/five82/gallerypipe/internal/validation"
)

// ErrRunnerUsed is returned when Run is called a second time on a Runner.
var ErrRunnerUsed = errors.New("runner has already been used")

// Env holds what every run of a pipeline shares. Only Config is required.
type Env struct {
	Config   *config.Config
	Stages   Stages
	Reporter reporter.Reporter
	Observer Observer
	Logger   *logging.Logger
}

func (e Env) withDefaults() Env {
	if e.Reporter == nil {
		e.Reporter = reporter.NullReporter{}
	}
	if e.Observer == nil {
		e.Observer = NopObserver{}
	}
	if e.Logger == nil {
		e.Logger = logging.Global()
	}
	return e
}

// Input is one file to process.
type Input struct {
	Path string
	// Name is the original filename. Empty uses the base of Path.
	Name string
}

// ID returns the identifier used in reports and batch errors.
func (in Input) ID() string {
	if in.Name != "" {
		return in.Name
	}
	return filepath.Base(in.Path)
}

// ProcessedResult is returned by a completed run. The artifact files belong
// to the caller.
type ProcessedResult struct {
	RunID string
	// WorkDir is <work root>/<run id>.
	WorkDir string
	// Source is the file that was processed: the staged copy when staging
	// is enabled, the input path otherwise.
	Source     string
	Metadata   media.MediaMetadata
	Compressed media.Artifact
	Thumbnail  media.Artifact
	Preview    media.Artifact
	// Validation is nil when output validation is disabled.
	Validation *validation.Result
	Elapsed    time.Duration
}

// RunError is a failed run. State is where the failure happened; Err is
// the stage error.
type RunError struct {
	RunID string
	State State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Runner takes one input through the pipeline. A Runner is single-use.
type Runner struct {
	env   Env
	used  atomic.Bool
	state atomic.Int32

	runID      string
	input      Input
	name       string
	onProgress media.ProgressFunc
	log        *logging.Logger
	wd         *workDir
}

// NewRunner creates a Runner for env.
func NewRunner(env Env) *Runner {
	return &Runner{env: env.withDefaults()}
}

// State returns the current state. It is safe to call from any goroutine.
func (r *Runner) State() State {
	return State(r.state.Load())
}

func (r *Runner) enter(s State) {
	r.state.Store(int32(s))
	if r.log != nil {
		r.log.Debug("state", "state", s.String())
	}
}

// Run processes in with opts. It returns a result only from Completed; on
// failure every file the run produced is removed and a *RunError is
// returned.
func (r *Runner) Run(ctx context.Context, in Input, opts config.Options, onProgress media.ProgressFunc) (*ProcessedResult, error) {
	if !r.used.CompareAndSwap(false, true) {
		return nil, ErrRunnerUsed
	}

	r.runID = uuid.NewString()
	r.input = in
	r.name = util.SanitizeFilename(in.ID())
	r.onProgress = onProgress
	r.log = r.env.Logger.With("run_id", r.runID, "input", in.Path)
	r.wd = newWorkDir(r.env.Config.WorkRoot, r.runID)

	start := time.Now()
	r.env.Observer.RunStarted()

	result, err := r.executeRecovering(ctx, opts)
	elapsed := time.Since(start)
	r.env.Observer.RunFinished(elapsed, err)
	if err != nil {
		return nil, r.fail(err)
	}

	result.Elapsed = elapsed
	r.enter(StateCompleted)
	r.log.Info("run completed", "elapsed", elapsed.Round(time.Millisecond).String())

	r.env.Observer.ArtifactProduced("compressed", result.Compressed.SizeBytes)
	r.env.Observer.ArtifactProduced("thumbnail", result.Thumbnail.SizeBytes)
	r.env.Observer.ArtifactProduced("preview", result.Preview.SizeBytes)

	originalSize, _ := util.GetFileSize(r.input.Path)
	r.env.Reporter.RunComplete(reporter.RunOutcome{
		RunID:          r.runID,
		Input:          in.Path,
		OriginalSize:   originalSize,
		CompressedSize: result.Compressed.SizeBytes,
		CompressedPath: result.Compressed.Path,
		ThumbnailPath:  result.Thumbnail.Path,
		PreviewPath:    result.Preview.Path,
		Width:          result.Compressed.Width,
		Height:         result.Compressed.Height,
		Elapsed:        elapsed,
	})
	return result, nil
}

// executeRecovering runs execute and turns a panic into an ordinary
// failure, so files claimed before the panic are still rolled back.
func (r *Runner) executeRecovering(ctx context.Context, opts config.Options) (result *ProcessedResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("run panicked", "state", r.State().String(), "panic", fmt.Sprint(p))
			result = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.execute(ctx, opts)
}

func (r *Runner) execute(ctx context.Context, opts config.Options) (*ProcessedResult, error) {
	r.enter(StatePending)

	info, statErr := os.Stat(r.input.Path)
	var size int64
	if statErr == nil {
		size = info.Size()
	}
	r.env.Reporter.RunStarted(reporter.RunStartInfo{
		RunID:     r.runID,
		Input:     r.input.Path,
		Name:      r.name,
		SizeBytes: size,
	})

	cfg := *r.env.Config
	cfg.Options = opts
	if err := cfg.Validate(); err != nil {
		return nil, coreerrors.NewConfigError("invalid processing options", err)
	}

	if statErr != nil {
		return nil, coreerrors.NewFileSystemError("stat", r.input.Path, statErr)
	}
	source, err := r.prepareInput(ctx, &cfg, info)
	if err != nil {
		return nil, err
	}

	if err := r.checkTools(ctx); err != nil {
		return nil, err
	}

	var meta media.MediaMetadata
	err = r.stage(ctx, StateProbingMetadata, media.StageProbe, func(progress media.ProgressFunc) (string, error) {
		var err error
		meta, err = r.env.Stages.Prober.Probe(ctx, source)
		if err == nil {
			progress.Emit(media.StageProbe, 100)
		}
		return "", err
	})
	if err != nil {
		return nil, err
	}
	r.env.Reporter.MetadataProbed(reporter.MetadataSummary{
		RunID:      r.runID,
		Input:      r.input.Path,
		Duration:   meta.DurationSecs,
		Width:      meta.Width,
		Height:     meta.Height,
		FrameRate:  meta.FrameRate,
		Codec:      meta.CodecName,
		BitrateBps: meta.BitrateBps,
	})

	stem := util.GetFileStem(r.name)
	result := &ProcessedResult{
		RunID:    r.runID,
		WorkDir:  r.wd.path,
		Source:   source,
		Metadata: meta,
	}

	err = r.stage(ctx, StateEncoding, media.StageEncode, func(progress media.ProgressFunc) (string, error) {
		out, err := r.wd.claim(compressedDir, stem+".mp4")
		if err != nil {
			return "", err
		}
		result.Compressed, err = r.env.Stages.Encoder.Encode(ctx, encode.Request{
			Input:   source,
			Output:  out,
			Source:  meta,
			Options: opts,
		}, progress)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StateExtractingThumbnail, media.StageThumbnail, func(progress media.ProgressFunc) (string, error) {
		out, err := r.wd.claim(thumbnailsDir, stem+".jpg")
		if err != nil {
			return "", err
		}
		result.Thumbnail, err = r.env.Stages.Frames.ExtractFrame(ctx, thumbnail.Request{
			Input:      source,
			Output:     out,
			OffsetSecs: opts.ThumbnailOffsetSecs,
			Source:     meta,
		}, progress)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StateExtractingPreview, media.StagePreview, func(progress media.ProgressFunc) (string, error) {
		out, err := r.wd.claim(previewsDir, stem+".mp4")
		if err != nil {
			return "", err
		}
		result.Preview, err = r.env.Stages.Encoder.ExtractClip(ctx, encode.ClipRequest{
			Input:        source,
			Output:       out,
			StartSecs:    opts.PreviewStartSecs,
			DurationSecs: opts.PreviewDurationSecs,
			Source:       meta,
			MaxWidth:     cfg.PreviewMaxWidth,
			MaxHeight:    cfg.PreviewMaxHeight,
		}, progress)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	if cfg.ValidateOutputs && r.env.Stages.Analyzer != nil {
		r.enter(StateValidating)
		if err := r.validate(ctx, &cfg, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// prepareInput performs the Pending checks and returns the path later
// stages read from. No subprocess is started here.
func (r *Runner) prepareInput(ctx context.Context, cfg *config.Config, info os.FileInfo) (string, error) {
	if !info.Mode().IsRegular() {
		return "", coreerrors.NewFileSystemError("read", r.input.Path, errors.New("not a regular file"))
	}
	if size := info.Size(); size > cfg.MaxInputBytes {
		return "", coreerrors.NewInputTooLargeError(r.input.Path, size, cfg.MaxInputBytes)
	}

	if !cfg.StageOriginal {
		return r.input.Path, nil
	}

	staged, err := r.wd.claim("", r.name)
	if err != nil {
		return "", err
	}
	if err := util.CopyFile(r.input.Path, staged); err != nil {
		return "", coreerrors.NewFileSystemError("copy", staged, err)
	}
	if ctx.Err() != nil {
		return "", coreerrors.NewCancelledError("")
	}
	return staged, nil
}

func (r *Runner) checkTools(ctx context.Context) error {
	r.enter(StateProbingTools)
	for _, tool := range r.env.Stages.Tools {
		if tool.Checker.IsAvailable(ctx) {
			continue
		}
		if ctx.Err() != nil {
			return coreerrors.NewCancelledError("tool check")
		}
		return coreerrors.NewToolUnavailableError(tool.Name, nil)
	}
	return nil
}

// stage runs fn as one progress-reporting stage. fn receives a progress
// callback that starts at 0 and drops regressions; it returns the path it
// wrote, if any.
func (r *Runner) stage(ctx context.Context, state State, stage media.Stage, fn func(media.ProgressFunc) (string, error)) error {
	r.enter(state)
	if ctx.Err() != nil {
		return coreerrors.NewCancelledError(stage.String())
	}

	update := reporter.StageUpdate{RunID: r.runID, Input: r.input.Path, Stage: stage.String()}
	r.env.Reporter.StageStarted(update)

	var mu sync.Mutex
	last := -1
	progress := func(ev media.ProgressEvent) {
		pct := max(0, min(ev.Percent, 100))
		mu.Lock()
		if pct <= last {
			mu.Unlock()
			return
		}
		last = pct
		mu.Unlock()

		r.onProgress.Emit(stage, pct)
		u := update
		u.Percent = pct
		r.env.Reporter.StageProgress(u)
	}
	progress(media.ProgressEvent{Stage: stage, Percent: 0})

	start := time.Now()
	output, err := fn(progress)
	elapsed := time.Since(start)
	r.env.Observer.StageFinished(stage.String(), elapsed, err)
	if err != nil {
		return err
	}

	r.log.Debug("stage complete", "stage", stage.String(), "elapsed", elapsed.Round(time.Millisecond).String())
	update.Elapsed = elapsed
	update.Output = output
	r.env.Reporter.StageComplete(update)
	return nil
}

// validate probes the artifacts and records mismatches as warnings. Only
// cancellation fails the run.
func (r *Runner) validate(ctx context.Context, cfg *config.Config, result *ProcessedResult) error {
	opts := validation.Options{
		ExpectedCodec:      cfg.Options.Codec.ProbeName(),
		ExpectedDimensions: &[2]int{result.Compressed.Width, result.Compressed.Height},
		ThumbnailBound:     &[2]int{cfg.ThumbnailMaxWidth, cfg.ThumbnailMaxHeight},
	}
	if d := result.Metadata.DurationSecs; d > 0 {
		opts.ExpectedDuration = &d
	}
	if d := result.Preview.Duration(); d > 0 {
		opts.ExpectedPreviewDuration = &d
	}

	res, err := validation.ValidateWithAnalyzer(ctx, r.env.Stages.Analyzer, validation.Artifacts{
		Compressed: result.Compressed.Path,
		Thumbnail:  result.Thumbnail.Path,
		Preview:    result.Preview.Path,
	}, opts)
	if err != nil {
		if coreerrors.IsCancelled(err) {
			return err
		}
		r.log.Warn("validation skipped", "error", err)
		r.env.Reporter.Warning(fmt.Sprintf("%s: validation skipped: %v", r.input.ID(), err))
		return nil
	}
	result.Validation = res

	steps := res.GetValidationSteps()
	summary := reporter.ValidationSummary{
		RunID:  r.runID,
		Input:  r.input.Path,
		Passed: res.IsValid(),
		Steps:  make([]reporter.ValidationStep, len(steps)),
	}
	for i, step := range steps {
		summary.Steps[i] = reporter.ValidationStep{Name: step.Name, Passed: step.Passed, Details: step.Details}
	}
	r.env.Reporter.ValidationComplete(summary)

	for _, failure := range res.GetFailures() {
		r.log.Warn("validation failed", "check", failure)
		r.env.Reporter.Warning(fmt.Sprintf("%s: %s", r.input.ID(), failure))
	}
	return nil
}

// fail moves the run to Failed, rolls back its files and wraps err.
func (r *Runner) fail(err error) error {
	failedIn := r.State()
	r.enter(StateFailed)

	for _, f := range r.wd.rollback() {
		r.log.Warn("cleanup failed", "path", f.Path, "error", f.Err)
		r.env.Observer.CleanupFailed(f.Path, f.Err)
		r.env.Reporter.Warning(fmt.Sprintf("could not remove %s: %v", f.Path, f.Err))
	}

	runErr := &RunError{RunID: r.runID, State: failedIn, Err: err}
	r.log.Warn("run failed", "state", failedIn.String(), "error", err)

	failure := reporter.RunFailure{
		RunID:   r.runID,
		Input:   r.input.Path,
		State:   failedIn.String(),
		Message: runErr.Error(),
	}
	var coreErr *coreerrors.CoreError
	if errors.As(err, &coreErr) {
		failure.Kind = coreErr.Kind.String()
		failure.DiagnosticTail = coreErr.DiagnosticTail
	}
	r.env.Reporter.RunFailed(failure)

	return runErr
}
