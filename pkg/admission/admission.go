// Package admission bounds how many scans run concurrently, globally and
// per target.
package admission

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"scanhub/pkg/logger"
	"scanhub/pkg/scanerr"
)

// Controller gates scan execution with a global semaphore, a per-target
// in-flight table, and a bounded wait queue.
type Controller struct {
	semaphore chan struct{}
	mu        sync.Mutex
	inflight  map[string]chan struct{}
	waiting   int
	running   int

	queueDepth      int
	queueDuplicates bool
	logger          *logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithQueueDuplicates makes a second request for an in-flight target wait
// for the first to finish instead of being rejected outright.
func WithQueueDuplicates() Option {
	return func(c *Controller) {
		c.queueDuplicates = true
	}
}

// New creates a Controller with the given global concurrency ceiling and
// wait queue depth.
func New(maxConcurrent, queueDepth int, opts ...Option) *Controller {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	c := &Controller{
		semaphore:  make(chan struct{}, maxConcurrent),
		inflight:   make(map[string]chan struct{}),
		queueDepth: queueDepth,
		logger:     logger.NewLogger(logrus.InfoLevel),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger.WithFields(logger.Fields{
		"max_concurrent": maxConcurrent,
		"queue_depth":    queueDepth,
	}).Info("Admission controller initialized")
	return c
}

// SlotToken is a concurrency permit. Release is safe to call more than
// once; the slot is returned exactly once.
type SlotToken struct {
	target string
	done   chan struct{}
	c      *Controller
	once   sync.Once
}

// Target returns the target the token reserves.
func (t *SlotToken) Target() string { return t.target }

// Release returns the slot and clears the per-target reservation.
func (t *SlotToken) Release() {
	t.once.Do(func() {
		<-t.c.semaphore
		t.c.mu.Lock()
		delete(t.c.inflight, t.target)
		close(t.done)
		t.c.running--
		remaining := t.c.running
		queued := t.c.waiting
		t.c.mu.Unlock()

		t.c.logger.WithFields(logger.Fields{
			"target":  t.target,
			"running": remaining,
			"queued":  queued,
		}).Info("Scan slot released")
	})
}

// Acquire reserves a slot for target, waiting in the bounded queue when all
// slots are busy. It fails fast with AdmissionRejectedError on a duplicate
// in-flight target (unless duplicates queue) or when the queue is full.
func (c *Controller) Acquire(ctx context.Context, target string) (*SlotToken, error) {
	c.mu.Lock()
	if _, dup := c.inflight[target]; dup && !c.queueDuplicates {
		c.mu.Unlock()
		return nil, &scanerr.AdmissionRejectedError{Target: target, Reason: scanerr.ReasonDuplicateTarget}
	}
	if c.waiting >= c.queueDepth && len(c.semaphore) == cap(c.semaphore) {
		c.mu.Unlock()
		return nil, &scanerr.AdmissionRejectedError{Target: target, Reason: scanerr.ReasonOverloaded}
	}
	c.waiting++
	queued := c.waiting
	c.mu.Unlock()

	c.logger.WithFields(logger.Fields{
		"target": target,
		"queued": queued,
	}).Info("Scan queued for admission")

	defer func() {
		c.mu.Lock()
		c.waiting--
		c.mu.Unlock()
	}()

	// Claim the per-target reservation, waiting out any earlier scan of the
	// same target when duplicates queue.
	var done chan struct{}
	for {
		c.mu.Lock()
		prev, dup := c.inflight[target]
		if !dup {
			done = make(chan struct{})
			c.inflight[target] = done
			c.mu.Unlock()
			break
		}
		if !c.queueDuplicates {
			// Another request claimed the target while we were queued.
			c.mu.Unlock()
			return nil, &scanerr.AdmissionRejectedError{Target: target, Reason: scanerr.ReasonDuplicateTarget}
		}
		c.mu.Unlock()
		select {
		case <-prev:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	select {
	case c.semaphore <- struct{}{}:
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.inflight, target)
		close(done)
		c.mu.Unlock()
		return nil, ctx.Err()
	}

	c.mu.Lock()
	c.running++
	running := c.running
	queued = c.waiting - 1
	c.mu.Unlock()

	c.logger.WithFields(logger.Fields{
		"target":  target,
		"running": running,
		"queued":  queued,
	}).Info("Scan admitted")

	return &SlotToken{target: target, done: done, c: c}, nil
}

// Status returns current admission counters.
func (c *Controller) Status() (running, queued, capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running, c.waiting, cap(c.semaphore)
}
