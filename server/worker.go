package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/lolcode/pkg/driver"
)

// checkRequest is a document to run through the front end of the pipeline.
type checkRequest struct {
	text string
	done chan checkResult
}

// checkResult holds the outcome of a check. err is the pipeline
// diagnostic; panic is set when the check itself failed.
type checkResult struct {
	err   error
	panic error
}

// ErrStopped is returned by Check once the worker has been stopped.
var ErrStopped = errors.New("server: worker stopped")

// Worker serializes pipeline checks through a single goroutine so
// overlapping editor notifications compile one document at a time.
type Worker struct {
	optimize bool
	requests chan checkRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(optimize bool) *Worker {
	w := &Worker{
		optimize: optimize,
		requests: make(chan checkRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.text)
		case <-w.quit:
			return
		}
	}
}

// execute checks one document, recovering from panics.
func (w *Worker) execute(text string) (result checkResult) {
	defer func() {
		if r := recover(); r != nil {
			result.panic = fmt.Errorf("check panicked: %v", r)
		}
	}()
	result.err = driver.Check(text, w.optimize)
	return result
}

// Check submits text and blocks until it has been parsed and compiled.
// diagnostic is the program's error, if any; err reports a failure of the
// checker itself, including ErrStopped.
func (w *Worker) Check(text string) (diagnostic error, err error) {
	select {
	case <-w.quit:
		return nil, ErrStopped
	default:
	}

	req := checkRequest{
		text: text,
		done: make(chan checkResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrStopped
	}
	select {
	case result := <-req.done:
		return result.err, result.panic
	case <-w.quit:
		return nil, ErrStopped
	}
}

// Stop shuts down the worker goroutine. It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
