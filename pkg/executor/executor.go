// Package executor owns the subprocess lifecycle for scan jobs: spawn,
// timeout enforcement, cancellation, and resource cleanup.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scanhub/pkg/findings"
	"scanhub/pkg/logger"
	"scanhub/pkg/scanerr"
	"scanhub/pkg/target"
)

// CommandSpec is an argument vector ready to spawn. The target is always a
// discrete element of Args, never part of a shell string.
type CommandSpec struct {
	Command string
	Args    []string
}

// Job pairs a validated target and scan kind with a generated identifier.
// A Job is owned by the executor for its lifetime and discarded once the
// subprocess exits or is killed.
type Job struct {
	ID        string
	Target    target.ValidatedTarget
	Kind      findings.ScanKind
	StartedAt time.Time

	cancel context.CancelFunc
}

// Result carries the captured output of a finished subprocess. Stdout is
// result data; stderr is retained for diagnostics only.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Executor runs scan tool subprocesses and tracks in-flight jobs so they
// can be cancelled by ID.
type Executor struct {
	grace  time.Duration
	mu     sync.Mutex
	jobs   map[string]*Job
	logger *logger.Logger
}

// New creates an Executor. grace is how long a terminated subprocess gets
// between SIGTERM and SIGKILL.
func New(grace time.Duration) *Executor {
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return &Executor{
		grace:  grace,
		jobs:   make(map[string]*Job),
		logger: logger.NewLogger(logrus.InfoLevel),
	}
}

// NewJob creates a Job with a fresh identifier and start timestamp.
func (e *Executor) NewJob(t target.ValidatedTarget, kind findings.ScanKind) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Target:    t,
		Kind:      kind,
		StartedAt: time.Now(),
	}
}

// Cancel requests termination of an in-flight job. It reports whether the
// job was found.
func (e *Executor) Cancel(jobID string) bool {
	e.mu.Lock()
	job, ok := e.jobs[jobID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.logger.WithScan(job.ID, string(job.Kind), job.Target.Host).Info("Cancelling scan job")
	job.cancel()
	return true
}

// Jobs returns a snapshot of in-flight jobs.
func (e *Executor) Jobs() []*Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Job, 0, len(e.jobs))
	for _, j := range e.jobs {
		out = append(out, j)
	}
	return out
}

// Run spawns spec as an isolated subprocess and waits for it to exit,
// enforcing timeout. On timeout or cancellation the process group receives
// SIGTERM, then SIGKILL after the grace period; output captured before the
// kill is still returned so adapters can salvage partial findings. The
// subprocess is reaped on every exit path.
func (e *Executor) Run(ctx context.Context, job *Job, spec CommandSpec, timeout time.Duration) (*Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	job.cancel = cancel

	e.mu.Lock()
	e.jobs[job.ID] = job
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.jobs, job.ID)
		e.mu.Unlock()
	}()

	cmd := exec.Command(spec.Command, spec.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Own process group so the kill reaches any children the tool forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	log := e.logger.WithScan(job.ID, string(job.Kind), job.Target.Host)
	log.Infof("Executing: %s %v", spec.Command, spec.Args)

	if err := cmd.Start(); err != nil {
		return nil, &scanerr.SpawnError{Command: spec.Command, Err: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var waitErr error
	var timedOut, cancelled bool

	select {
	case waitErr = <-done:
	case <-timer.C:
		timedOut = true
		waitErr = e.terminate(cmd, done)
	case <-runCtx.Done():
		cancelled = true
		waitErr = e.terminate(cmd, done)
	}

	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	switch {
	case timedOut:
		log.Warnf("Scan exceeded timeout of %s, subprocess killed", timeout)
		return res, &scanerr.TimeoutError{JobID: job.ID, Timeout: timeout}
	case cancelled:
		log.Info("Scan cancelled, subprocess killed")
		return res, &scanerr.CancelledError{JobID: job.ID}
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, &scanerr.SpawnError{Command: spec.Command, Err: waitErr}
		}
		// Non-zero exit is not automatically fatal; the adapter decides
		// from the exit code table and captured output.
	}

	return res, nil
}

// terminate signals the process group and reaps the subprocess: SIGTERM,
// wait out the grace period, then SIGKILL.
func (e *Executor) terminate(cmd *exec.Cmd, done chan error) error {
	pgid := -cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	select {
	case err := <-done:
		return err
	case <-time.After(e.grace):
		_ = syscall.Kill(pgid, syscall.SIGKILL)
		return <-done
	}
}
