// Package ev implements the event queues that connections use to hand
// work to whichever goroutine is processing events.
package ev

import (
	"errors"

	"deedles.dev/xsync/cq"
)

// Queue collects closures from any number of goroutines and hands them
// over in bulk.
type Queue = cq.BulkQueue[func() error, *Events]

func NewQueue() *Queue {
	return cq.New(func(v []func() error) *Events {
		return &Events{
			events: v,
		}
	})
}

// Events represents a series of events from a queue.
type Events struct {
	events []func() error
}

// Flush processess all of the events represented by q.
func (q *Events) Flush() error {
	return errors.Join(Flush(q)...)
}

// Len returns the number of unprocessed events.
func (q *Events) Len() int {
	return len(q.events)
}

func Flush(queue *Events) (errs []error) {
	for _, ev := range queue.events {
		err := ev()
		if err != nil {
			errs = append(errs, err)
		}
	}
	queue.events = nil
	return errs
}
