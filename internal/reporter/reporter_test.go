package reporter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var events []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var ev map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("invalid NDJSON line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestJSONReporterEvents(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf)

	r.RunStarted(RunStartInfo{RunID: "r1", Input: "a.mov", Name: "a.mov", SizeBytes: 100})
	r.StageStarted(StageUpdate{RunID: "r1", Stage: "encode"})
	r.StageComplete(StageUpdate{RunID: "r1", Stage: "encode", Elapsed: 1500 * time.Millisecond, Output: "out.mp4"})
	r.RunFailed(RunFailure{RunID: "r1", Input: "a.mov", State: "Encoding", Kind: "Encoding failure", Message: "boom"})
	r.BatchComplete(BatchSummary{TotalFiles: 2, SuccessfulCount: 1, FailedCount: 1, Failures: []FileFailure{{Input: "a.mov", Message: "boom"}}})

	events := decodeLines(t, &buf)
	wantTypes := []string{"run_started", "stage_started", "stage_complete", "run_failed", "batch_complete"}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i]["type"] != want {
			t.Errorf("event %d type = %v, want %s", i, events[i]["type"], want)
		}
		if _, ok := events[i]["timestamp"]; !ok {
			t.Errorf("event %d has no timestamp", i)
		}
	}
	if events[2]["elapsed_seconds"] != 1.5 {
		t.Errorf("elapsed_seconds = %v", events[2]["elapsed_seconds"])
	}
	if events[3]["state"] != "Encoding" {
		t.Errorf("state = %v", events[3]["state"])
	}
	if failures, ok := events[4]["failures"].([]any); !ok || len(failures) != 1 {
		t.Errorf("failures = %v", events[4]["failures"])
	}
}

func TestJSONReporterThrottlesProgress(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf)

	r.StageStarted(StageUpdate{RunID: "r1", Stage: "encode"})
	for _, pct := range []int{0, 1, 2, 4, 5, 6, 50, 51, 100} {
		r.StageProgress(StageUpdate{RunID: "r1", Stage: "encode", Percent: pct})
	}
	// A different run keeps its own buckets.
	r.StageProgress(StageUpdate{RunID: "r2", Stage: "encode", Percent: 1})

	var got []float64
	for _, ev := range decodeLines(t, &buf) {
		if ev["type"] == "stage_progress" {
			got = append(got, ev["percent"].(float64))
		}
	}
	want := []float64{0, 5, 50, 100, 1}
	if len(got) != len(want) {
		t.Fatalf("progress percents = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress percents = %v, want %v", got, want)
		}
	}
}

func TestJSONReporterConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporterWithWriter(&buf)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Warning(strings.Repeat("x", i))
		}()
	}
	wg.Wait()

	if got := len(decodeLines(t, &buf)); got != 20 {
		t.Fatalf("got %d lines, want 20", got)
	}
}

type countingReporter struct {
	NullReporter
	warnings int
	failures int
}

func (c *countingReporter) Warning(string)       { c.warnings++ }
func (c *countingReporter) RunFailed(RunFailure) { c.failures++ }

func TestCompositeReporter(t *testing.T) {
	a, b := &countingReporter{}, &countingReporter{}
	c := NewCompositeReporter(a, nil, b)

	c.Warning("careful")
	c.RunFailed(RunFailure{})
	c.StageProgress(StageUpdate{})

	for _, r := range []*countingReporter{a, b} {
		if r.warnings != 1 || r.failures != 1 {
			t.Errorf("reporter saw %d warnings, %d failures", r.warnings, r.failures)
		}
	}
}

func TestTerminalReporterModes(t *testing.T) {
	color.NoColor = true

	var out, errOut bytes.Buffer
	r := NewTerminalReporterWithWriters(&out, &errOut)

	r.RunStarted(RunStartInfo{RunID: "r1", Input: "/videos/a.mov", Name: "a.mov", SizeBytes: 2048})
	r.StageStarted(StageUpdate{RunID: "r1", Stage: "encode"})
	r.StageProgress(StageUpdate{RunID: "r1", Stage: "encode", Percent: 40})
	r.StageComplete(StageUpdate{RunID: "r1", Input: "/videos/a.mov", Stage: "encode", Elapsed: time.Second})
	r.RunFailed(RunFailure{Input: "/videos/a.mov", State: "Encoding", Message: "encode failed", DiagnosticTail: "frame=1\nConversion failed!"})

	if !strings.Contains(out.String(), "VIDEO") || !strings.Contains(out.String(), "2.00 KiB") {
		t.Errorf("single-run output missing sections:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "Conversion failed!") || strings.Contains(errOut.String(), "frame=1") {
		t.Errorf("failure output should show the last diagnostic line:\n%s", errOut.String())
	}

	out.Reset()
	r.BatchStarted(BatchStartInfo{TotalFiles: 2, FileList: []string{"a.mov", "b.mov"}, Concurrency: 2})
	r.RunStarted(RunStartInfo{RunID: "r2", Input: "/videos/b.mov", Name: "b.mov"})
	r.StageProgress(StageUpdate{RunID: "r2", Stage: "encode", Percent: 40})
	r.BatchProgress(BatchProgress{Completed: 1, Total: 2, Failed: 1, LastInput: "/videos/a.mov"})

	if strings.Contains(out.String(), "VIDEO") {
		t.Errorf("batch mode should not print per-run sections:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "[1/2] a.mov (1 failed)") {
		t.Errorf("missing batch progress line:\n%s", out.String())
	}
}
