package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrJobNotFound         = errors.New("post job not found")
	ErrJobNotCancellable   = errors.New("only pending jobs can be cancelled")
	ErrJobNotRetryable     = errors.New("only failed jobs can be retried")
	ErrJobNotClaimable     = errors.New("post job is not pending")
	ErrContentNotFound     = errors.New("content not found")
	ErrConnectionNotFound  = errors.New("no active connection")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrQueueEntryNotFound  = errors.New("queue entry not found")
	ErrNoPlatforms         = errors.New("at least one platform is required")
)

type ErrorKind string

const (
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindAuthorization ErrorKind = "authorization"
	ErrorKindRateLimit     ErrorKind = "rate_limit"
	ErrorKindPlatform      ErrorKind = "platform"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindNotFound      ErrorKind = "not_found"
	ErrorKindUnsupported   ErrorKind = "unsupported"
)

// PublishError classifies a pipeline failure so the worker can decide
// between requeue and terminal failure.
type PublishError struct {
	Kind       ErrorKind
	Platform   Platform
	Message    string
	StatusCode int
	RetryIn    time.Duration
	Err        error
}

func (e *PublishError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Retryable is true for transient kinds.
func (e *PublishError) Retryable() bool {
	switch e.Kind {
	case ErrorKindRateLimit, ErrorKindPlatform, ErrorKindTimeout:
		return true
	}
	return false
}

func (e *PublishError) RetryAfter() time.Duration { return e.RetryIn }

func NewValidationError(platform Platform, problems []string) *PublishError {
	msg := "content failed validation"
	if len(problems) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, joinProblems(problems))
	}
	return &PublishError{Kind: ErrorKindValidation, Platform: platform, Message: msg}
}

func NewAuthorizationError(platform Platform, msg string) *PublishError {
	return &PublishError{Kind: ErrorKindAuthorization, Platform: platform, Message: msg}
}

// NewPlatformError keeps the platform message verbatim.
func NewPlatformError(platform Platform, status int, msg string) *PublishError {
	return &PublishError{Kind: ErrorKindPlatform, Platform: platform, StatusCode: status, Message: msg}
}

func NewTimeoutError(platform Platform, msg string) *PublishError {
	return &PublishError{Kind: ErrorKindTimeout, Platform: platform, Message: msg}
}

// AsPublishError unwraps err into a *PublishError. Unclassified errors are
// treated as transient platform/network failures.
func AsPublishError(platform Platform, err error) *PublishError {
	if err == nil {
		return nil
	}
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return &PublishError{Kind: ErrorKindRateLimit, Platform: platform, Message: rl.Error(), RetryIn: rl.RetryAfter, Err: rl}
	}
	switch {
	case errors.Is(err, ErrContentNotFound), errors.Is(err, ErrJobNotFound):
		return &PublishError{Kind: ErrorKindNotFound, Platform: platform, Message: err.Error(), Err: err}
	case errors.Is(err, ErrConnectionNotFound):
		return &PublishError{Kind: ErrorKindAuthorization, Platform: platform, Message: err.Error(), Err: err}
	case errors.Is(err, ErrUnsupportedPlatform):
		return &PublishError{Kind: ErrorKindUnsupported, Platform: platform, Message: err.Error(), Err: err}
	}
	return &PublishError{Kind: ErrorKindPlatform, Platform: platform, Message: err.Error(), Err: err}
}

// RateLimitError is returned when a (platform, tenant) bucket has no room.
type RateLimitError struct {
	Platform   Platform
	TenantID   string
	Current    int
	Limit      int
	Daily      bool
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	scope := "window"
	if e.Daily {
		scope = "daily"
	}
	return fmt.Sprintf("rate limit exceeded for %s (%s %d/%d), retry in %s",
		e.Platform, scope, e.Current, e.Limit, e.RetryAfter.Round(time.Second))
}

func joinProblems(problems []string) string {
	out := problems[0]
	for _, p := range problems[1:] {
		out += "; " + p
	}
	return out
}
