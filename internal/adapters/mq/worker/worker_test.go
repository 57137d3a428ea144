package worker_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/scramble/internal/adapters/mq/queue"
	worker "github.com/okian/scramble/internal/adapters/mq/worker"
	model "github.com/okian/scramble/internal/domain/model"
	"github.com/okian/scramble/internal/domain/session"
	logging "github.com/okian/scramble/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// recordingHandler remembers the order commands were applied in.
type recordingHandler struct {
	mu    sync.Mutex
	kinds []model.Kind
	block chan struct{}
}

func (h *recordingHandler) Handle(ctx context.Context, cmd model.Command) model.Reply {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kinds = append(h.kinds, cmd.Kind)
	if cmd.Kind == model.KindSubmitGuess {
		return model.Reply{Err: session.ErrGuessMismatch}
	}
	return model.Reply{Snapshot: session.Snapshot{Round: len(h.kinds)}}
}

func (h *recordingHandler) seen() []model.Kind {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.Kind(nil), h.kinds...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a session queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		h := &recordingHandler{}
		w := worker.NewInMemoryWorker(q, h, worker.WithName("session-1"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When commands are enqueued", func() {
			cmds := []model.Command{
				model.NewCommand("s1", model.KindPlay),
				model.NewCommand("s1", model.KindChooseCategory),
				model.NewCommand("s1", model.KindSubmitGuess),
			}
			for _, c := range cmds {
				convey.So(q.Enqueue(ctx, c), convey.ShouldBeNil)
			}
			replies := make([]model.Reply, len(cmds))
			for i, c := range cmds {
				replies[i] = <-c.Reply
			}

			convey.Convey("Then they are applied in order and each gets a reply", func() {
				convey.So(h.seen(), convey.ShouldResemble, []model.Kind{model.KindPlay, model.KindChooseCategory, model.KindSubmitGuess})
				convey.So(replies[0].Snapshot.Round, convey.ShouldEqual, 1)
				convey.So(replies[1].Snapshot.Round, convey.ShouldEqual, 2)
				convey.So(errors.Is(replies[2].Err, session.ErrGuessMismatch), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a command has no reply channel", func() {
			convey.So(q.Enqueue(ctx, model.Command{Kind: model.KindTick}), convey.ShouldBeNil)
			follow := model.NewCommand("s1", model.KindSnapshot)
			convey.So(q.Enqueue(ctx, follow), convey.ShouldBeNil)
			<-follow.Reply

			convey.Convey("Then it is still applied", func() {
				convey.So(h.seen(), convey.ShouldResemble, []model.Kind{model.KindTick, model.KindSnapshot})
			})
		})

		convey.Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			err := w.Shutdown(sctx)

			convey.Convey("Then it exits and a second shutdown is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				<-w.Done()
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestInMemoryWorker_DrainOnShutdown(t *testing.T) {
	convey.Convey("Given a worker blocked inside a command", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		h := &recordingHandler{block: make(chan struct{})}
		w := worker.NewInMemoryWorker(q, h)
		go w.Run(context.Background())

		first := model.NewCommand("s1", model.KindPlay)
		pending := model.NewCommand("s1", model.KindRestart)
		convey.So(q.Enqueue(context.Background(), first), convey.ShouldBeNil)
		time.Sleep(10 * time.Millisecond)
		convey.So(q.Enqueue(context.Background(), pending), convey.ShouldBeNil)

		convey.Convey("When shutdown is requested and the command finishes", func() {
			errc := make(chan error, 1)
			go func() { errc <- w.Shutdown(context.Background()) }()
			time.Sleep(10 * time.Millisecond)
			close(h.block)

			convey.Convey("Then the running command completes and the queued one is refused", func() {
				convey.So((<-first.Reply).Err, convey.ShouldBeNil)
				convey.So(errors.Is((<-pending.Reply).Err, worker.ErrStopped), convey.ShouldBeTrue)
				convey.So(<-errc, convey.ShouldBeNil)
			})
		})
	})
}

func TestInMemoryWorker_Panic(t *testing.T) {
	convey.Convey("Given a handler that panics", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, worker.HandlerFunc(func(ctx context.Context, cmd model.Command) model.Reply {
			panic("boom")
		}))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a command is processed", func() {
			cmd := model.NewCommand("s1", model.KindPlay)
			convey.So(q.Enqueue(ctx, cmd), convey.ShouldBeNil)
			reply := <-cmd.Reply

			convey.Convey("Then the panic becomes an error and the worker keeps running", func() {
				convey.So(errors.Is(reply.Err, worker.ErrHandlerPanic), convey.ShouldBeTrue)
				next := model.NewCommand("s1", model.KindPlay)
				convey.So(q.Enqueue(ctx, next), convey.ShouldBeNil)
				convey.So(errors.Is((<-next.Reply).Err, worker.ErrHandlerPanic), convey.ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryWorker_SlowCommand(t *testing.T) {
	convey.Convey("Given a worker with a slow threshold", t, func() {
		var out bytes.Buffer
		_ = logging.Init(logging.WithWriter(&out))
		defer func() { _ = logging.Init() }()

		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, worker.HandlerFunc(func(ctx context.Context, cmd model.Command) model.Reply {
			time.Sleep(20 * time.Millisecond)
			return model.Reply{}
		}), worker.WithSlowThreshold(5*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a command takes longer than the threshold", func() {
			cmd := model.NewCommand("s1", model.KindPlay)
			convey.So(q.Enqueue(ctx, cmd), convey.ShouldBeNil)
			<-cmd.Reply

			convey.Convey("Then a warning is logged", func() {
				convey.So(out.String(), convey.ShouldContainSubstring, "slow command")
				convey.So(out.String(), convey.ShouldContainSubstring, "play")
			})
		})
	})
}
