package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/robfig/cron/v3"
)

const (
	DefaultInterval   = time.Second
	DefaultBatchSize  = 100
	DefaultRetryDelay = 2 * time.Second
)

var ErrAlreadyRunning = errors.New("dispatcher already running")

// ResumeHandler delivers one due request. A non-nil error puts the request
// back on the queue for another attempt after the retry delay.
type ResumeHandler func(ctx context.Context, request models.ResumeRequest) error

type DispatcherOption func(*Dispatcher)

func WithInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

func WithBatchSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.batchSize = size
		}
	}
}

func WithRetryDelay(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if delay > 0 {
			d.retryDelay = delay
		}
	}
}

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// Dispatcher polls a DelayQueue on a cron tick and hands due requests to a
// ResumeHandler. It is also the engine's Scheduler.
type Dispatcher struct {
	queue      DelayQueue
	handler    ResumeHandler
	logger     *slog.Logger
	interval   time.Duration
	batchSize  int
	retryDelay time.Duration
	now        func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

var _ protocol.Scheduler = (*Dispatcher)(nil)

func NewDispatcher(logger *slog.Logger, queue DelayQueue, handler ResumeHandler, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		queue:      queue,
		handler:    handler,
		logger:     logger.With("module", "resume_dispatcher"),
		interval:   DefaultInterval,
		batchSize:  DefaultBatchSize,
		retryDelay: DefaultRetryDelay,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Dispatcher) Schedule(ctx context.Context, request models.ResumeRequest) error {
	if err := d.queue.Push(ctx, request); err != nil {
		return fmt.Errorf("failed to schedule resume %s: %w", request.ID, err)
	}

	d.logger.DebugContext(ctx, "Scheduled resume",
		"resume_id", request.ID,
		"execution_id", request.ExecutionID,
		"reason", request.Reason,
		"due_at", request.DueAt)

	return nil
}

// Start begins polling until ctx is done or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron != nil {
		return ErrAlreadyRunning
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	spec := "@every " + d.interval.String()
	if _, err := c.AddFunc(spec, func() { d.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to register dispatcher tick %q: %w", spec, err)
	}

	c.Start()
	d.cron = c

	d.logger.InfoContext(ctx, "Resume dispatcher started", "interval", d.interval)

	go func() {
		<-ctx.Done()
		d.Stop()
	}()

	return nil
}

// Stop halts polling and waits for a running tick to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	c := d.cron
	d.cron = nil
	d.mu.Unlock()

	if c == nil {
		return
	}

	<-c.Stop().Done()
	d.logger.Info("Resume dispatcher stopped")
}

func (d *Dispatcher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if _, err := d.Tick(ctx); err != nil {
		d.logger.ErrorContext(ctx, "Dispatcher tick failed", "error", err)
	}
}

// Tick delivers every request that is due now and reports how many were
// handled successfully.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	now := d.now()

	due, err := d.queue.PopDue(ctx, now, d.batchSize)
	if err != nil && len(due) == 0 {
		return 0, err
	}

	delivered := 0

	for _, request := range due {
		logger := d.logger.With("resume_id", request.ID, "execution_id", request.ExecutionID)

		if herr := d.handler(ctx, request); herr != nil {
			logger.WarnContext(ctx, "Resume delivery failed, retrying", "error", herr, "retry_in", d.retryDelay)

			request.DueAt = now.Add(d.retryDelay)
			if perr := d.queue.Push(context.WithoutCancel(ctx), request); perr != nil {
				logger.ErrorContext(ctx, "Failed to requeue resume request", "error", perr)
			}

			continue
		}

		delivered++
	}

	return delivered, err
}
