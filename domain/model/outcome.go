package model

import "time"

type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeRetry     OutcomeStatus = "retry"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// Outcome is what one pipeline run reports back to the worker pool.
type Outcome struct {
	Status   OutcomeStatus
	Err      error
	MinDelay time.Duration
	Result   *PublishResult
}

func Completed(result *PublishResult) Outcome {
	return Outcome{Status: OutcomeCompleted, Result: result}
}

func Retry(err error, minDelay time.Duration) Outcome {
	return Outcome{Status: OutcomeRetry, Err: err, MinDelay: minDelay}
}

func Failed(err error) Outcome { return Outcome{Status: OutcomeFailed, Err: err} }

func Skipped(err error) Outcome { return Outcome{Status: OutcomeSkipped, Err: err} }

// Reason is the text stored on the queue entry.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
