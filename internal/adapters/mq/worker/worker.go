// Package worker runs the single-owner actor loop that applies one session's
// commands in arrival order.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/scramble/internal/domain/model"
	"github.com/okian/scramble/pkg/logger"
	"github.com/okian/scramble/pkg/metrics"
)

// Command abstracts what workers read off the queue.
type Command = model.Command

// Handler applies a command. It is only ever called from the worker goroutine.
type Handler interface {
	Handle(ctx context.Context, cmd Command) model.Reply
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, cmd Command) model.Reply

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, cmd Command) model.Reply { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	return f(ctx, cmd)
}

// Queue defines how workers receive commands.
type Queue interface {
	Dequeue() <-chan Command
}

// Worker processes commands until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called or
	// the queue is closed.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for it to exit. Commands still
	// queued are answered with ErrStopped.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for one session.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string
	slow    time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, handler Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		handler:  handler,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	commands := w.queue.Dequeue()
	for {
		// shutdown wins over queued work
		select {
		case <-w.shutdown:
			w.drain(commands)
			return
		default:
		}

		select {
		case <-ctx.Done():
			w.drain(commands)
			return
		case <-w.shutdown:
			w.drain(commands)
			return
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			w.process(ctx, cmd)
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process handles a single command and answers its reply channel.
func (w *InMemoryWorker) process(ctx context.Context, cmd Command) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	reply := w.handle(ctx, cmd)

	outcome := "ok"
	if reply.Err != nil {
		outcome = "error"
	}
	metrics.RecordCommand(string(cmd.Kind), outcome)
	if !cmd.EnqueuedAt.IsZero() {
		latency := time.Since(cmd.EnqueuedAt)
		metrics.RecordCommandLatency(string(cmd.Kind), float64(latency.Microseconds())/1000)
		if w.slow > 0 && latency > w.slow {
			w.logger.Warn(ctx, "slow command",
				logger.String("kind", string(cmd.Kind)),
				logger.Duration("latency", latency),
			)
		}
	}

	respond(cmd, reply)
}

func (w *InMemoryWorker) handle(ctx context.Context, cmd Command) (reply model.Reply) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "command handler panicked",
				logger.String("kind", string(cmd.Kind)),
				logger.Any("panic", r),
			)
			reply = model.Reply{Err: fmt.Errorf("%w: %v", ErrHandlerPanic, r)}
		}
	}()
	return w.handler.Handle(ctx, cmd)
}

// drain answers every command left in the buffer so no caller waits forever.
func (w *InMemoryWorker) drain(commands <-chan Command) {
	for {
		select {
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			respond(cmd, model.Reply{Err: ErrStopped})
		default:
			return
		}
	}
}

func respond(cmd Command, reply model.Reply) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	if cmd.Reply == nil {
		return
	}
	select {
	case cmd.Reply <- reply:
	default:
	}
}
