package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/five82/gallerypipe/internal/util"
)

// TerminalReporter outputs human-friendly text to the terminal.
//
// A single run gets section headings and a progress bar per stage. Once a
// batch with more than one worker starts, runs interleave, so the reporter
// switches to one line per finished stage and run.
type TerminalReporter struct {
	out        io.Writer
	errOut     io.Writer
	mu         sync.Mutex
	progress   *progressbar.ProgressBar
	maxPercent int
	lineMode   bool
	cyan       *color.Color
	green      *color.Color
	greenBold  *color.Color
	yellow     *color.Color
	red        *color.Color
	magenta    *color.Color
	bold       *color.Color
	faint      *color.Color
}

// NewTerminalReporter creates a terminal reporter writing to stdout and stderr.
func NewTerminalReporter() *TerminalReporter {
	return NewTerminalReporterWithWriters(os.Stdout, os.Stderr)
}

// NewTerminalReporterWithWriters creates a terminal reporter with custom writers.
func NewTerminalReporterWithWriters(out, errOut io.Writer) *TerminalReporter {
	return &TerminalReporter{
		out:     out,
		errOut:  errOut,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		greenBold: color.New(color.FgGreen, color.Bold),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (r *TerminalReporter) isLineMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lineMode
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) heading(title string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, title)
}

func (r *TerminalReporter) RunStarted(info RunStartInfo) {
	if r.isLineMode() {
		_, _ = fmt.Fprintf(r.out, "%s %s\n", r.magenta.Sprint("›"), info.Name)
		return
	}
	r.heading("VIDEO")
	r.printLabel(10, "File:", info.Input)
	r.printLabel(10, "Size:", util.FormatBytes(info.SizeBytes))
	r.printLabel(10, "Run:", r.faint.Sprint(info.RunID))
}

func (r *TerminalReporter) MetadataProbed(summary MetadataSummary) {
	if r.isLineMode() {
		return
	}
	r.printLabel(10, "Duration:", util.FormatDuration(summary.Duration))
	r.printLabel(10, "Resolution:", fmt.Sprintf("%dx%d @ %.2f fps", summary.Width, summary.Height, summary.FrameRate))
	r.printLabel(10, "Codec:", summary.Codec)
}

func (r *TerminalReporter) StageStarted(update StageUpdate) {
	if r.isLineMode() {
		return
	}
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      stageTitle(update.Stage) + " [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) StageProgress(update StageUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lineMode || r.progress == nil {
		return
	}

	clamped := max(0, min(update.Percent, 100))
	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}
}

func (r *TerminalReporter) StageComplete(update StageUpdate) {
	r.finishProgress()

	if r.isLineMode() {
		_, _ = fmt.Fprintf(r.out, "  %s %s %s (%.1fs)\n",
			r.faint.Sprint(filepath.Base(update.Input)), r.green.Sprint("✓"), update.Stage, update.Elapsed.Seconds())
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s %s\n",
		r.green.Sprint("✓"),
		r.bold.Sprintf("%-10s", stageTitle(update.Stage)),
		r.faint.Sprintf("%.1fs", update.Elapsed.Seconds()))
}

func (r *TerminalReporter) ValidationComplete(summary ValidationSummary) {
	if r.isLineMode() {
		if !summary.Passed {
			_, _ = r.yellow.Fprintf(r.out, "  %s validation failed\n", filepath.Base(summary.Input))
		}
		return
	}

	r.heading("VALIDATION")
	if summary.Passed {
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.greenBold.Sprint("All checks passed"))
	} else {
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.red.Sprint("Validation failed"))
	}

	maxLen := 0
	for _, step := range summary.Steps {
		maxLen = max(maxLen, len(step.Name))
	}
	for _, step := range summary.Steps {
		status := r.green.Sprint("✓")
		if !step.Passed {
			status = r.red.Sprint("✗")
		}
		paddedName := fmt.Sprintf("%-*s", maxLen, step.Name)
		_, _ = fmt.Fprintf(r.out, "  - %s: %s (%s)\n", paddedName, status, step.Details)
	}
}

func (r *TerminalReporter) RunComplete(outcome RunOutcome) {
	reduction := util.CalculateSizeReduction(outcome.OriginalSize, outcome.CompressedSize)

	if r.isLineMode() {
		_, _ = fmt.Fprintf(r.out, "%s %s %s -> %s (%.1f%%)\n",
			r.greenBold.Sprint("✓"),
			r.bold.Sprint(filepath.Base(outcome.Input)),
			util.FormatBytes(outcome.OriginalSize),
			util.FormatBytes(outcome.CompressedSize),
			reduction)
		return
	}

	r.heading("RESULTS")
	r.printLabel(11, "Compressed:", fmt.Sprintf("%s (%dx%d)", outcome.CompressedPath, outcome.Width, outcome.Height))
	r.printLabel(11, "Thumbnail:", outcome.ThumbnailPath)
	r.printLabel(11, "Preview:", outcome.PreviewPath)
	r.printLabel(11, "Size:", fmt.Sprintf("%s -> %s", util.FormatBytes(outcome.OriginalSize), util.FormatBytes(outcome.CompressedSize)))
	r.printLabel(11, "Reduction:", r.bold.Sprintf("%.1f%%", reduction))
	r.printLabel(11, "Time:", util.FormatDuration(outcome.Elapsed.Seconds()))
}

func (r *TerminalReporter) RunFailed(failure RunFailure) {
	r.finishProgress()

	_, _ = fmt.Fprintln(r.errOut)
	_, _ = r.red.Fprintf(r.errOut, "ERROR %s\n", failure.Input)
	_, _ = fmt.Fprintf(r.errOut, "  %s\n", failure.Message)
	_, _ = fmt.Fprintf(r.errOut, "  State: %s\n", failure.State)
	if failure.DiagnosticTail != "" {
		lines := strings.Split(failure.DiagnosticTail, "\n")
		_, _ = fmt.Fprintf(r.errOut, "  Tool output: %s\n", lines[len(lines)-1])
	}
}

func (r *TerminalReporter) Warning(message string) {
	_, _ = r.yellow.Fprintf(r.out, "WARN: %s\n", message)
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	r.mu.Lock()
	r.lineMode = info.TotalFiles > 1 && info.Concurrency > 1
	r.mu.Unlock()

	r.heading("BATCH")
	_, _ = fmt.Fprintf(r.out, "  Processing %d files with %d workers\n", info.TotalFiles, info.Concurrency)
	for i, name := range info.FileList {
		_, _ = fmt.Fprintf(r.out, "  %d. %s\n", i+1, name)
	}
}

func (r *TerminalReporter) BatchProgress(progress BatchProgress) {
	failed := ""
	if progress.Failed > 0 {
		failed = r.red.Sprintf(" (%d failed)", progress.Failed)
	}
	_, _ = fmt.Fprintf(r.out, "%s %s%s\n",
		r.bold.Sprintf("[%d/%d]", progress.Completed, progress.Total),
		filepath.Base(progress.LastInput),
		failed)
}

func (r *TerminalReporter) BatchComplete(summary BatchSummary) {
	reduction := util.CalculateSizeReduction(summary.TotalOriginalSize, summary.TotalCompressedSize)

	r.heading("BATCH SUMMARY")
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.bold.Sprintf("%d of %d succeeded", summary.SuccessfulCount, summary.TotalFiles))
	_, _ = fmt.Fprintf(r.out, "  Size: %s -> %s (%.1f%% reduction)\n",
		util.FormatBytes(summary.TotalOriginalSize), util.FormatBytes(summary.TotalCompressedSize), reduction)
	_, _ = fmt.Fprintf(r.out, "  Time: %s\n", util.FormatDuration(summary.TotalDuration.Seconds()))

	for _, f := range summary.Failures {
		_, _ = fmt.Fprintf(r.out, "  %s %s: %s\n", r.red.Sprint("✗"), f.Input, f.Message)
	}
}

func stageTitle(stage string) string {
	if stage == "" {
		return ""
	}
	return strings.ToUpper(stage[:1]) + stage[1:]
}
