package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	coreerrors "github.com/five82/gallerypipe/internal/errors"
)

const (
	// DefaultTailLines is how many stderr lines a failure keeps as diagnostics.
	DefaultTailLines = 20

	// pipeDrainDelay bounds how long Wait keeps reading stderr after the
	// process exits, in case a grandchild inherited the pipe.
	pipeDrainDelay = 2 * time.Second
)

// Command describes one invocation of an external tool.
type Command struct {
	// Tool is the executable name or path.
	Tool string
	Args []string
	// Stage labels timeout and cancellation errors.
	Stage string
	// Timeout bounds the whole invocation. Zero means no deadline.
	Timeout time.Duration
	// Stdout receives the tool's standard output. Nil discards it.
	Stdout io.Writer
	// OnLine receives each stderr line as it arrives. Lines end at \r or \n.
	// A panic in OnLine kills the process and is re-raised by Run.
	OnLine func(line string)
}

// Result describes a finished invocation.
type Result struct {
	// Stderr holds the last DefaultTailLines lines of diagnostic output.
	Stderr  string
	Elapsed time.Duration
}

// Run starts the command and waits for it to exit, for its deadline, or for
// ctx to be cancelled, whichever comes first.
//
// On deadline or cancellation the whole process group is killed and reaped
// before Run returns a TimeoutExceeded or Cancelled error. A non-zero exit
// returns a *errors.CommandError carrying the exit code and stderr tail. A
// spawn failure returns a ToolUnavailable error.
func Run(ctx context.Context, c Command) (Result, error) {
	if ctx.Err() != nil {
		return Result{}, coreerrors.NewCancelledError(c.Stage)
	}

	tail := newTailBuffer(DefaultTailLines)
	handler := newLineHandler(c.OnLine)
	stderr := newLineWriter(func(line string) {
		tail.add(line)
		handler.handle(line)
	})

	cmd := exec.Command(c.Tool, c.Args...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = pipeDrainDelay
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, coreerrors.NewToolUnavailableError(filepath.Base(c.Tool), err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var deadline <-chan time.Time
	if c.Timeout > 0 {
		timer := time.NewTimer(c.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	finish := func() Result {
		stderr.flush()
		handler.repanic()
		return Result{Stderr: tail.String(), Elapsed: time.Since(start)}
	}

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return finish(), coreerrors.NewCancelledError(c.Stage)
	case <-deadline:
		killProcessGroup(cmd)
		<-done
		return finish(), coreerrors.NewTimeoutError(c.Stage, c.Timeout)
	case <-handler.panicked:
		killProcessGroup(cmd)
		waitErr = <-done
	}

	res := finish()
	if waitErr == nil || errors.Is(waitErr, exec.ErrWaitDelay) {
		return res, nil
	}
	if cmdErr, ok := coreerrors.WrapExitError(filepath.Base(c.Tool), waitErr, res.Stderr); ok {
		return res, cmdErr
	}
	return res, &coreerrors.CommandError{Command: filepath.Base(c.Tool), ExitCode: -1, Stderr: res.Stderr}
}

// lineHandler runs the caller's OnLine on exec's copy goroutine, where a
// panic cannot be recovered by the caller. The first panic is kept and
// later lines are dropped.
type lineHandler struct {
	onLine     func(string)
	once       sync.Once
	panicked   chan struct{}
	panicValue any
}

func newLineHandler(onLine func(string)) *lineHandler {
	return &lineHandler{onLine: onLine, panicked: make(chan struct{})}
}

func (h *lineHandler) handle(line string) {
	if h.onLine == nil {
		return
	}
	select {
	case <-h.panicked:
		return
	default:
	}
	defer func() {
		if p := recover(); p != nil {
			h.once.Do(func() {
				h.panicValue = p
				close(h.panicked)
			})
		}
	}()
	h.onLine(line)
}

// repanic re-raises a panic recorded while the process was running.
func (h *lineHandler) repanic() {
	select {
	case <-h.panicked:
		panic(h.panicValue)
	default:
	}
}
