package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"scanhub/internal/notification"
	"scanhub/pkg/engine"
	"scanhub/pkg/findings"
	"scanhub/pkg/logger"
)

// RunningJob is one in-flight scan as reported by /status.
type RunningJob struct {
	JobID     string `json:"job_id"`
	Target    string `json:"target"`
	Kind      string `json:"kind"`
	StartedAt int64  `json:"started_at"`
}

// StatusSnapshot captures admission counters and in-flight jobs.
type StatusSnapshot struct {
	Running  int          `json:"running"`
	Queued   int          `json:"queued"`
	Capacity int          `json:"capacity"`
	Jobs     []RunningJob `json:"jobs"`
}

type ScanServiceMethods interface {
	RunScan(ctx context.Context, req engine.ScanRequest) (*findings.ScanResult, error)
	CancelScan(jobID string) bool
	Status() StatusSnapshot
}

type scanService struct {
	coordinator *engine.Coordinator
	notifier    *notification.NotificationClient
	logger      *logger.Logger
}

// NewScanService wires the coordinator behind the HTTP handlers. notifier
// may be nil when Discord alerting is not configured.
func NewScanService(coordinator *engine.Coordinator, notifier *notification.NotificationClient) ScanServiceMethods {
	return &scanService{
		coordinator: coordinator,
		notifier:    notifier,
		logger:      logger.NewLogger(logrus.InfoLevel),
	}
}

func (s *scanService) RunScan(ctx context.Context, req engine.ScanRequest) (*findings.ScanResult, error) {
	result, err := s.coordinator.Execute(ctx, req)
	if err == nil && s.notifier != nil {
		// Alerting is best effort and must not delay the response.
		go func(r *findings.ScanResult) {
			if notifyErr := s.notifier.NotifyScan(r); notifyErr != nil {
				s.logger.WithError(notifyErr).Warn("Failed to send scan notification")
			}
		}(result)
	}
	return result, err
}

func (s *scanService) CancelScan(jobID string) bool {
	return s.coordinator.Executor().Cancel(jobID)
}

func (s *scanService) Status() StatusSnapshot {
	running, queued, capacity := s.coordinator.Admission().Status()
	jobs := s.coordinator.Executor().Jobs()

	snapshot := StatusSnapshot{
		Running:  running,
		Queued:   queued,
		Capacity: capacity,
		Jobs:     make([]RunningJob, 0, len(jobs)),
	}
	for _, j := range jobs {
		snapshot.Jobs = append(snapshot.Jobs, RunningJob{
			JobID:     j.ID,
			Target:    j.Target.Host,
			Kind:      string(j.Kind),
			StartedAt: j.StartedAt.Unix(),
		})
	}
	return snapshot
}
