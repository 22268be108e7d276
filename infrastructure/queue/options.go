package queue

import "time"

// Options is the retention and retry policy shared by both queue implementations.
type Options struct {
	Prefix             string
	DefaultMaxAttempts int
	BackoffBase        time.Duration
	MaxBackoff         time.Duration
	CompletedRetention time.Duration
	FailedRetention    time.Duration
	Now                func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Prefix:             "publish",
		DefaultMaxAttempts: 3,
		BackoffBase:        60 * time.Second,
		MaxBackoff:         time.Hour,
		CompletedRetention: time.Hour,
		FailedRetention:    7 * 24 * time.Hour,
		Now:                time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Prefix == "" {
		o.Prefix = d.Prefix
	}
	if o.DefaultMaxAttempts <= 0 {
		o.DefaultMaxAttempts = d.DefaultMaxAttempts
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = d.BackoffBase
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = d.MaxBackoff
	}
	if o.CompletedRetention <= 0 {
		o.CompletedRetention = d.CompletedRetention
	}
	if o.FailedRetention <= 0 {
		o.FailedRetention = d.FailedRetention
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

// BackoffDelay is base * 2^(attemptsMade-1), capped at max: 60s, 120s, 240s...
func BackoffDelay(attemptsMade int, base, max time.Duration) time.Duration {
	if attemptsMade < 1 {
		attemptsMade = 1
	}
	d := base
	for i := 1; i < attemptsMade; i++ {
		d *= 2
		if max > 0 && d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
