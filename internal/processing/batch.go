package processing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/five82/gallerypipe/internal/config"
	coreerrors "github.com/five82/gallerypipe/internal/errors"
	"github.com/five82/gallerypipe/internal/media"
	"github.com/five82/gallerypipe/internal/reporter"
	"github.com/five82/gallerypipe/internal/util"
	"github.com/five82/gallerypipe/internal/worker"
)

// ItemProgressFunc receives progress for one batch item. Calls for
// different items interleave; calls for one item and stage are monotonic.
type ItemProgressFunc func(index, total int, inputID string, ev media.ProgressEvent)

// ItemError is a failed batch item.
type ItemError struct {
	Index   int
	InputID string
	Err     error
}

// BatchSummary is the outcome of RunBatch. Succeeded+Failed always equals
// Total. Errors are ordered by input index; Results is index-aligned and
// holds nil for failed items.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Errors    []ItemError
	Results   []*ProcessedResult
	Elapsed   time.Duration
}

// batchState accumulates item outcomes from concurrent workers.
type batchState struct {
	mu         sync.Mutex
	inputs     []Input
	results    []*ProcessedResult
	errs       []error
	completed  int
	succeeded  int
	failed     int
	originals  int64
	compressed int64
}

func (b *batchState) record(idx int, result *ProcessedResult, err error) reporter.BatchProgress {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.completed++
	if err != nil {
		b.errs[idx] = err
		b.failed++
	} else {
		b.results[idx] = result
		b.succeeded++
		b.compressed += result.Compressed.SizeBytes
		if size, statErr := util.GetFileSize(b.inputs[idx].Path); statErr == nil {
			b.originals += size
		}
	}

	return reporter.BatchProgress{
		Completed: b.completed,
		Total:     len(b.inputs),
		Succeeded: b.succeeded,
		Failed:    b.failed,
		LastInput: b.inputs[idx].Path,
	}
}

// RunBatch processes inputs with at most env.Config.Concurrency runs in
// flight. A failing item never stops the others. Items not started before
// ctx is cancelled are recorded as Cancelled failures.
func RunBatch(ctx context.Context, env Env, inputs []Input, opts config.Options, onItemProgress ItemProgressFunc) BatchSummary {
	env = env.withDefaults()
	start := time.Now()
	total := len(inputs)

	names := make([]string, total)
	for i, in := range inputs {
		names[i] = in.ID()
	}
	env.Reporter.BatchStarted(reporter.BatchStartInfo{
		TotalFiles:  total,
		FileList:    names,
		Concurrency: env.Config.Concurrency,
	})

	state := &batchState{
		inputs:  inputs,
		results: make([]*ProcessedResult, total),
		errs:    make([]error, total),
	}

	job := func(ctx context.Context, idx int) {
		in := inputs[idx]
		result, err := runItem(ctx, env, in, opts, func(ev media.ProgressEvent) {
			if onItemProgress != nil {
				onItemProgress(idx, total, in.ID(), ev)
			}
		})
		env.Reporter.BatchProgress(state.record(idx, result, err))
	}
	skip := func(idx int) {
		err := &RunError{State: StatePending, Err: coreerrors.NewCancelledError("")}
		env.Reporter.BatchProgress(state.record(idx, nil, err))
	}

	worker.Run(ctx, total, env.Config.Concurrency, job, skip)

	summary := BatchSummary{
		Total:     total,
		Succeeded: state.succeeded,
		Failed:    state.failed,
		Results:   state.results,
		Elapsed:   time.Since(start),
	}
	report := reporter.BatchSummary{
		TotalFiles:          total,
		SuccessfulCount:     state.succeeded,
		FailedCount:         state.failed,
		TotalOriginalSize:   state.originals,
		TotalCompressedSize: state.compressed,
		TotalDuration:       summary.Elapsed,
	}
	for i, err := range state.errs {
		if err == nil {
			continue
		}
		summary.Errors = append(summary.Errors, ItemError{Index: i, InputID: inputs[i].ID(), Err: err})
		report.Failures = append(report.Failures, reporter.FileFailure{Input: inputs[i].Path, Message: err.Error()})
	}
	env.Reporter.BatchComplete(report)

	return summary
}

// runItem runs one input on a fresh Runner and converts a panic into an
// error so it stays inside the item.
func runItem(ctx context.Context, env Env, in Input, opts config.Options, onProgress media.ProgressFunc) (result *ProcessedResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			env.Logger.Error("run panicked", "input", in.Path, "panic", fmt.Sprint(p))
			result = nil
			err = fmt.Errorf("processing %s panicked: %v", in.ID(), p)
		}
	}()
	return NewRunner(env).Run(ctx, in, opts, onProgress)
}
