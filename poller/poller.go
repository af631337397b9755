// Package poller waits on remote job and live event state.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"amsflow/config"
	"amsflow/logger"
	"amsflow/media"
)

// ErrTimeout is returned when Options.Timeout elapses before the awaited state.
var ErrTimeout = errors.New("polling timed out")

var errPending = errors.New("not ready")

// Options shapes the poll schedule. A zero Timeout polls until done or cancelled.
type Options struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	Timeout     time.Duration
}

// FromSettings converts the POLL_* settings.
func FromSettings(p config.PollSettings) Options {
	return Options{
		Interval:    p.Interval,
		MaxInterval: p.MaxInterval,
		Multiplier:  p.Multiplier,
		Timeout:     p.Timeout,
	}
}

func (o Options) schedule(ctx context.Context) backoff.BackOff {
	interval := o.Interval
	if interval <= 0 {
		interval = config.DefaultPollInterval
	}
	maxInterval := o.MaxInterval
	if maxInterval < interval {
		maxInterval = interval
	}
	multiplier := o.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = maxInterval
	b.Multiplier = multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// JobGetter is the part of media.Client WaitForJob needs.
type JobGetter interface {
	GetJob(ctx context.Context, transform, name string) (media.Job, error)
}

// LiveEventGetter is the part of media.Client WaitForLiveEvent needs.
type LiveEventGetter interface {
	GetLiveEvent(ctx context.Context, name string) (media.LiveEvent, error)
}

// WaitForJob re-fetches the job until it reaches a terminal state and returns it.
// Transient API errors are retried on the same schedule; a missing job is fatal.
func WaitForJob(ctx context.Context, client JobGetter, transform, name string, opts Options) (media.Job, error) {
	var job media.Job
	op := func(ctx context.Context) error {
		j, err := client.GetJob(ctx, transform, name)
		if err != nil {
			if errors.Is(err, media.ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		job = j
		logJob(j)
		if j.State.Terminal() {
			return nil
		}
		return errPending
	}

	if err := run(ctx, opts, op); err != nil {
		return job, fmt.Errorf("waiting for job %s: %w", name, err)
	}
	return job, nil
}

// WaitForLiveEvent re-fetches until the live event can be read.
func WaitForLiveEvent(ctx context.Context, client LiveEventGetter, name string, opts Options) (media.LiveEvent, error) {
	var event media.LiveEvent
	op := func(ctx context.Context) error {
		e, err := client.GetLiveEvent(ctx, name)
		if err != nil {
			if errors.Is(err, media.ErrNotFound) {
				logger.Debugf("Live event %s not visible yet", name)
				return errPending
			}
			return err
		}
		event = e
		return nil
	}

	if err := run(ctx, opts, op); err != nil {
		return event, fmt.Errorf("waiting for live event %s: %w", name, err)
	}
	logger.Infof("Live event %s is available", name)
	return event, nil
}

// run retries op until it succeeds. op receives the Timeout-bounded context so a
// hung call is cut off at the deadline.
func run(parent context.Context, opts Options, op func(ctx context.Context) error) error {
	ctx := parent
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, opts.Timeout)
		defer cancel()
	}

	notify := func(err error, next time.Duration) {
		if !errors.Is(err, errPending) {
			logger.Warnf("Poll failed, retrying in %s: %v", next, err)
		}
	}

	err := backoff.RetryNotify(func() error { return op(ctx) }, opts.schedule(ctx), notify)
	if err != nil && parent.Err() == nil && ctx.Err() != nil {
		return ErrTimeout
	}
	return err
}

func logJob(j media.Job) {
	logger.Infof("Job is %s", j.State)
	for i, out := range j.Outputs {
		logger.Infof(" JobOutput[%d] is %s", i, out.State)
		if out.State == media.JobProcessing {
			logger.Infof("  Progress: %d", out.Progress)
		}
		if out.Error != "" {
			logger.Warnf("  Error: %s", out.Error)
		}
	}
}
