package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"callbook-service/internal/booking"
)

// TaskReport describes a finished background booking.
type TaskReport struct {
	ID       string
	CallID   string
	Result   booking.Result
	Started  time.Time
	Finished time.Time
}

// Dispatcher runs booking tasks detached from the request that started
// them. Tasks get a fresh background context, so nothing the caller does
// cancels them; their outcome is only visible through logs and OnDone.
type Dispatcher struct {
	// OnDone, if set, is called once per task after it finishes.
	OnDone func(TaskReport)
	Logger *log.Logger

	wg sync.WaitGroup
}

func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{Logger: logger}
}

func (d *Dispatcher) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Go starts fn in its own goroutine and returns the task id.
func (d *Dispatcher) Go(callID string, fn func(ctx context.Context) booking.Result) string {
	id := uuid.NewString()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		rep := TaskReport{ID: id, CallID: callID, Started: time.Now()}
		defer func() {
			if r := recover(); r != nil {
				rep.Result = booking.Result{
					State:   booking.StateFailed,
					Failure: &booking.Failed{ErrorDetail: fmt.Sprintf("panic: %v", r)},
				}
			}
			rep.Finished = time.Now()
			d.logf("[tasks] task=%s call=%s finished in %s: %s",
				rep.ID, rep.CallID, rep.Finished.Sub(rep.Started).Round(time.Millisecond), rep.Result)
			if d.OnDone != nil {
				d.OnDone(rep)
			}
		}()
		d.logf("[tasks] task=%s call=%s booking started", id, callID)
		rep.Result = fn(context.Background())
	}()
	return id
}

// Wait blocks until every started task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Drain waits for running tasks until ctx is done.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
