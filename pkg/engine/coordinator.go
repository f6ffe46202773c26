// Package engine hosts the scan coordinator: the façade that drives a scan
// request through validation, admission, subprocess execution, and output
// normalization.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"scanhub/pkg/admission"
	"scanhub/pkg/adapters"
	"scanhub/pkg/executor"
	"scanhub/pkg/findings"
	"scanhub/pkg/logger"
	"scanhub/pkg/metrics"
	"scanhub/pkg/scanerr"
	"scanhub/pkg/target"
)

// ScanRequest is one incoming scan call. Immutable; discarded after the
// scan completes.
type ScanRequest struct {
	Target string
	Kind   findings.ScanKind
}

// CoordinatorOpts holds the collaborators a Coordinator drives.
type CoordinatorOpts struct {
	registry  *adapters.Registry
	executor  *executor.Executor
	admission *admission.Controller
	timeout   time.Duration
}

// OptFunc configures a Coordinator.
type OptFunc func(*CoordinatorOpts)

func WithRegistry(r *adapters.Registry) OptFunc {
	return func(o *CoordinatorOpts) { o.registry = r }
}

func WithExecutor(e *executor.Executor) OptFunc {
	return func(o *CoordinatorOpts) { o.executor = e }
}

func WithAdmission(a *admission.Controller) OptFunc {
	return func(o *CoordinatorOpts) { o.admission = a }
}

func WithTimeout(d time.Duration) OptFunc {
	return func(o *CoordinatorOpts) { o.timeout = d }
}

// Coordinator resolves a request to a tool adapter, acquires admission,
// runs the executor, and returns the normalized result set.
type Coordinator struct {
	CoordinatorOpts
	logger *logger.Logger
}

// NewCoordinator creates a Coordinator. Collaborators not supplied via
// options get working defaults.
func NewCoordinator(opts ...OptFunc) *Coordinator {
	o := CoordinatorOpts{
		registry:  adapters.NewRegistry(),
		executor:  executor.New(5 * time.Second),
		admission: admission.New(2, 8),
		timeout:   2 * time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Coordinator{
		CoordinatorOpts: o,
		logger:          logger.NewLogger(logrus.InfoLevel),
	}
}

// Executor exposes the job registry, for cancellation and status listing.
func (c *Coordinator) Executor() *executor.Executor { return c.executor }

// Admission exposes the admission controller counters.
func (c *Coordinator) Admission() *admission.Controller { return c.admission }

// Execute drives one scan to a terminal state. The admission slot is
// released on every path. Validation and admission failures short-circuit
// before any subprocess is spawned. On timeout or cancellation, findings
// salvaged from partial output are returned alongside the error.
func (c *Coordinator) Execute(ctx context.Context, req ScanRequest) (*findings.ScanResult, error) {
	adapter, ok := c.registry.Get(req.Kind)
	if !ok {
		return nil, &scanerr.InvalidRequestError{Field: "type", Reason: "unknown scan kind " + string(req.Kind)}
	}

	vt, err := target.Validate(req.Target)
	if err != nil {
		c.logger.WithError(err).WithField("target", req.Target).Warn("Target rejected")
		return nil, err
	}

	token, err := c.admission.Acquire(ctx, vt.Host)
	if err != nil {
		var rejected *scanerr.AdmissionRejectedError
		if errors.As(err, &rejected) {
			metrics.AdmissionRejected.WithLabelValues(string(rejected.Reason)).Inc()
		}
		return nil, err
	}
	defer token.Release()

	job := c.executor.NewJob(vt, req.Kind)
	spec := adapter.BuildInvocation(vt)

	log := c.logger.WithScan(job.ID, string(req.Kind), vt.Host)
	log.Info("Scan admitted, starting tool")
	metrics.ScansStarted.WithLabelValues(string(req.Kind)).Inc()

	res, runErr := c.executor.Run(ctx, job, spec, c.timeout)
	duration := time.Since(job.StartedAt)

	if runErr != nil && errors.Is(runErr, scanerr.ErrSpawn) {
		// Spawn failure: nothing ran, nothing to parse.
		metrics.ScansCompleted.WithLabelValues(string(req.Kind), scanerr.Kind(runErr)).Inc()
		log.WithError(runErr).Error("Tool failed to spawn")
		return nil, runErr
	}

	// Output already captured is parsed to completion even when the run
	// was cut short; the tolerant parsers salvage whole records.
	fnds, parseErr := adapter.Parse(res.Stdout, res.ExitCode)

	result := &findings.ScanResult{
		Kind:         req.Kind,
		Target:       vt.Host,
		JobID:        job.ID,
		StartedAt:    job.StartedAt,
		DurationMS:   duration.Milliseconds(),
		ToolExitCode: res.ExitCode,
		Findings:     fnds,
	}

	switch {
	case runErr != nil:
		// Timeout or cancellation: partial results travel with the error.
		metrics.ScansCompleted.WithLabelValues(string(req.Kind), scanerr.Kind(runErr)).Inc()
		log.WithError(runErr).Warnf("Scan terminated early with %d partial findings", len(fnds))
		return result, runErr

	case parseErr != nil:
		metrics.ScansCompleted.WithLabelValues(string(req.Kind), scanerr.Kind(parseErr)).Inc()
		if len(res.Stderr) > 0 {
			log.WithFields(logrus.Fields{"stderr": string(res.Stderr)}).Debug("Tool stderr output")
		}
		log.WithError(parseErr).Error("Scan failed")
		return nil, parseErr
	}

	metrics.ScansCompleted.WithLabelValues(string(req.Kind), "completed").Inc()
	metrics.ScanDuration.WithLabelValues(string(req.Kind)).Observe(duration.Seconds())
	metrics.Findings.WithLabelValues(string(req.Kind)).Add(float64(len(fnds)))

	log.Infof("Scan completed with %d findings in %s", len(fnds), duration)
	return result, nil
}
