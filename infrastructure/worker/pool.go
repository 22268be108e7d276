package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Handler runs the publish pipeline for one entry.
type Handler interface {
	Process(ctx context.Context, entry *model.QueueEntry) model.Outcome
	Exhausted(ctx context.Context, entry *model.QueueEntry, reason string)
}

type Config struct {
	Concurrency   int
	JobsPerMinute int
	PollInterval  time.Duration
	JobTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 15 * time.Minute
	}
	return c
}

// newThrottle limits how many jobs start per minute across all workers.
func newThrottle(jobsPerMinute, burst int) *rate.Limiter {
	if jobsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(jobsPerMinute)), burst)
}

// ErrPoolStopped is returned by Run once Stop has been called.
var ErrPoolStopped = errors.New("worker pool stopped")

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	queue    repository.IJobQueue
	handler  Handler
	cfg      Config
	throttle *rate.Limiter

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewPool(queue repository.IJobQueue, handler Handler, cfg Config) *Pool {
	cfg = cfg.withDefaults()
	return &Pool{
		queue:    queue,
		handler:  handler,
		cfg:      cfg,
		throttle: newThrottle(cfg.JobsPerMinute, cfg.Concurrency),
		done:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or Stop is called and every in-flight job has settled.
// A pool runs once; Run after Stop returns ErrPoolStopped without touching the queue.
func (p *Pool) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	if p.started {
		p.mu.Unlock()
		return errors.New("worker pool already running")
	}
	p.started = true
	p.cancel = cancel
	p.mu.Unlock()
	defer close(p.done)

	logger.GetLogger().
		WithField("concurrency", p.cfg.Concurrency).
		WithField("jobs_per_minute", p.cfg.JobsPerMinute).
		Info("Worker pool started")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Concurrency; i++ {
		id := i
		g.Go(func() error {
			p.work(gctx, id)
			return nil
		})
	}
	err := g.Wait()
	logger.GetLogger().Info("Worker pool stopped")
	return err
}

// Stop stops dequeuing, waits for in-flight jobs (bounded by ctx), then closes
// the queue. The queue is closed even when the deadline passes first; entries
// still active then are picked up by stall recovery. Later calls are no-ops.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	started, cancel := p.started, p.cancel
	p.mu.Unlock()

	var waitErr error
	if started {
		cancel()
		select {
		case <-p.done:
		case <-ctx.Done():
			logger.GetLogger().Warn("Worker pool did not drain before shutdown deadline")
			waitErr = ctx.Err()
		}
	}
	if err := p.queue.Close(); err != nil && waitErr == nil {
		return err
	}
	return waitErr
}

func (p *Pool) work(ctx context.Context, id int) {
	lg := logger.GetLogger().WithField("worker", id)
	for {
		if ctx.Err() != nil {
			return
		}
		entry, err := p.queue.Dequeue(ctx)
		if err != nil {
			lg.WithField("error", err).Error("Dequeue failed")
		}
		if entry == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.PollInterval):
			}
			continue
		}
		// A dequeued entry is in flight and finishes even if the pool is stopping.
		jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.JobTimeout)
		p.handle(jobCtx, entry)
		cancel()
	}
}

func (p *Pool) handle(ctx context.Context, entry *model.QueueEntry) {
	lg := logger.GetLogger().
		WithField("job_id", entry.JobID).
		WithField("platform", entry.Payload.Platform).
		WithField("attempt", entry.AttemptsMade+1)

	if err := p.throttle.Wait(ctx); err != nil {
		lg.WithField("error", err).Warn("Throttle wait aborted")
	}
	out := p.handler.Process(ctx, entry)
	p.settle(ctx, entry, out)
	lg.WithField("outcome", out.Status).Debug("Job settled")
}

func (p *Pool) settle(ctx context.Context, entry *model.QueueEntry, out model.Outcome) {
	lg := logger.GetLogger().WithField("job_id", entry.JobID)
	switch out.Status {
	case model.OutcomeCompleted, model.OutcomeSkipped:
		if err := p.queue.Complete(ctx, entry.JobID); err != nil {
			lg.WithField("error", err).Error("Error while completing queue entry")
		}
	case model.OutcomeRetry:
		retried, delay, err := p.queue.Retry(ctx, entry.JobID, out.Reason(), out.MinDelay)
		if err != nil {
			lg.WithField("error", err).Error("Error while retrying queue entry")
			return
		}
		if !retried {
			p.handler.Exhausted(ctx, entry, out.Reason())
			return
		}
		lg.WithField("delay", delay.String()).Info("Job scheduled for retry")
	default:
		if err := p.queue.Fail(ctx, entry.JobID, out.Reason()); err != nil {
			lg.WithField("error", err).Error("Error while failing queue entry")
		}
	}
}
