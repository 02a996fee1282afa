package watcher

import (
	"context"
	"log"
	"time"
)

// PollProcessor defines the interface for one discovery poll cycle
type PollProcessor interface {
	Poll(ctx context.Context) error
}

// Worker drives a discovery source on a fixed polling cadence. Workers run
// for the process lifetime; Stop lets an in-flight cycle finish before
// returning.
type Worker struct {
	name         string
	processor    PollProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(name string, processor PollProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		name:         name,
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("watcher %s started with poll interval: %v", w.name, w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("watcher %s stopped: context cancelled", w.name)
			return
		case <-w.stopChan:
			log.Printf("watcher %s stopped: stop signal received", w.name)
			return
		case <-ticker.C:
			// A failed cycle is logged and retried on the next tick.
			if err := w.processor.Poll(ctx); err != nil {
				log.Printf("watcher %s poll failed: %v", w.name, err)
			}
		}
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Printf("watcher %s shutdown complete", w.name)
}
