package queue

import (
	"testing"

	"social-publisher/domain/repository"
)

func TestMemoryQueue(t *testing.T) {
	runQueueSuite(t, func(t *testing.T, opts Options) repository.IJobQueue {
		return NewMemoryQueue(opts)
	})
}
