package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scramble/internal/adapters/mq/queue"
	"github.com/okian/scramble/internal/adapters/mq/worker"
	"github.com/okian/scramble/internal/adapters/repository"
	"github.com/okian/scramble/internal/domain/countdown"
	"github.com/okian/scramble/internal/domain/model"
	"github.com/okian/scramble/internal/domain/session"
	"github.com/okian/scramble/pkg/logger"
	"github.com/okian/scramble/pkg/metrics"
)

const storeTimeout = 2 * time.Second

// game binds one Session to its actor, countdown and subscribers.
// Fields below the actor-owned marker are only touched from Handle.
type game struct {
	id     string
	player string

	queue  *queue.InMemoryQueue
	worker *worker.InMemoryWorker
	driver *countdown.Driver
	store  repository.Store
	logger logger.Logger

	subsMu  sync.Mutex
	subs    map[chan model.Event]struct{}
	subsBuf int

	lastActive atomic.Int64

	// actor-owned
	sess     *session.Session
	roundGen uint64
}

func newGame(id, player string, sess *session.Session, store repository.Store, tick time.Duration, queueSize, subsBuf int, log logger.Logger) *game {
	g := &game{
		id:      id,
		player:  player,
		sess:    sess,
		store:   store,
		queue:   queue.NewInMemoryQueue(queue.WithCapacity(queueSize)),
		subs:    make(map[chan model.Event]struct{}),
		subsBuf: subsBuf,
		logger:  log,
	}
	g.driver = countdown.New(tick, g.onTick)
	g.worker = worker.NewInMemoryWorker(g.queue, g,
		worker.WithName(id),
		worker.WithLogger(log),
		// a command waiting half a tick delays the clock
		worker.WithSlowThreshold(tick/2),
	)
	g.touch()
	return g
}

func (g *game) touch() {
	g.lastActive.Store(time.Now().UnixNano())
}

func (g *game) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, g.lastActive.Load()))
}

// onTick runs on the driver goroutine and must not block.
func (g *game) onTick(gen uint64) {
	cmd := model.Command{SessionID: g.id, Kind: model.KindTick, Generation: gen, EnqueuedAt: time.Now()}
	if err := g.queue.Enqueue(context.Background(), cmd); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			metrics.RecordDroppedTick()
			g.logger.Warn(context.Background(), "tick dropped", logger.Uint64("generation", gen))
		}
	}
}

// Handle applies one command to the session. It runs on the actor goroutine.
func (g *game) Handle(ctx context.Context, cmd model.Command) model.Reply { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	switch cmd.Kind {
	case model.KindSnapshot:
		return model.Reply{Snapshot: g.sess.Snapshot()}
	case model.KindSubscribe:
		snap := g.sess.Snapshot()
		g.addSubscriber(cmd.Events, model.StateEvent(g.id, snap))
		return model.Reply{Snapshot: snap}
	case model.KindTick:
		if cmd.Generation != g.roundGen || g.sess.Phase() != session.PhasePlaying {
			metrics.RecordStaleTick()
			return model.Reply{Snapshot: g.sess.Snapshot()}
		}
	}

	wasPlaying := g.sess.Phase() == session.PhasePlaying
	notice, err := g.apply(cmd)
	snap := g.sess.Snapshot()

	switch {
	case snap.Playing() && !wasPlaying:
		g.roundGen = g.driver.Start()
		metrics.RecordRoundStarted(snap.Category)
		g.logger.Debug(ctx, "round started",
			logger.String("category", snap.Category),
			logger.Int("round", snap.Round),
			logger.Uint64("generation", g.roundGen),
		)
	case wasPlaying && !snap.Playing():
		g.driver.Stop()
		g.roundGen = 0
		g.finishRound(ctx, &snap)
	}

	if err == nil {
		g.publish(model.StateEvent(g.id, snap))
	}
	if !notice.IsZero() {
		g.publish(model.NoticeEvent(g.id, notice))
	}
	return model.Reply{Snapshot: snap, Notice: notice, Err: err}
}

func (g *game) apply(cmd model.Command) (session.Notice, error) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	var notice session.Notice
	var err error
	switch cmd.Kind {
	case model.KindPlay:
		err = g.sess.Play()
	case model.KindChooseCategory:
		err = g.sess.ChooseCategory(cmd.Category)
	case model.KindUpdateGuess:
		err = g.sess.UpdateGuess(cmd.Text)
	case model.KindSubmitGuess:
		notice, err = g.sess.SubmitGuess()
		if err == nil || errors.Is(err, session.ErrGuessMismatch) {
			metrics.RecordGuess(err == nil)
		}
	case model.KindRequestHint:
		notice, err = g.sess.RequestHint()
		if err == nil || errors.Is(err, session.ErrInsufficientScore) {
			metrics.RecordHint(err == nil)
		}
	case model.KindTick:
		notice, _, err = g.sess.Tick()
		metrics.RecordTick()
	case model.KindPlayAgain:
		err = g.sess.PlayAgain()
	case model.KindRestart:
		err = g.sess.Restart()
	case model.KindReturnToMenu:
		err = g.sess.ReturnToMenu()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
	return notice, err
}

// finishRound records the round and persists the best score. The store keeps
// the player's best across sessions; the snapshot high score stays local to
// this session, and only the player's next session starts from the stored best.
func (g *game) finishRound(ctx context.Context, snap *session.Snapshot) {
	metrics.RecordRoundCompleted(snap.Category, snap.Score)
	g.logger.Info(ctx, "round finished",
		logger.String("category", snap.Category),
		logger.Int("score", snap.Score),
		logger.Int("high_score", snap.HighScore),
		logger.Int("words_solved", snap.WordsSolved),
		logger.Int("hints_used", snap.HintsUsed),
	)
	if g.store == nil || g.player == "" {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if _, _, err := g.store.RecordBest(sctx, g.player, snap.Score); err != nil {
		metrics.RecordErrorByComponent("app", "score_store")
		g.logger.Error(ctx, "failed to persist best score", logger.String("player", g.player), logger.Error(err))
	}
}

func (g *game) addSubscriber(ch chan model.Event, first model.Event) {
	if ch == nil {
		return
	}
	g.subsMu.Lock()
	defer g.subsMu.Unlock()
	g.subs[ch] = struct{}{}
	select {
	case ch <- first:
		metrics.RecordEventPublished()
	default:
		metrics.RecordEventDropped()
	}
}

func (g *game) removeSubscriber(ch chan model.Event) {
	g.subsMu.Lock()
	defer g.subsMu.Unlock()
	if _, ok := g.subs[ch]; ok {
		delete(g.subs, ch)
		close(ch)
	}
}

// publish never blocks; slow subscribers lose events.
func (g *game) publish(ev model.Event) {
	g.subsMu.Lock()
	defer g.subsMu.Unlock()
	for ch := range g.subs {
		select {
		case ch <- ev:
			metrics.RecordEventPublished()
		default:
			metrics.RecordEventDropped()
		}
	}
}

// closeSubscribers sends a final closed event and closes every channel.
func (g *game) closeSubscribers() {
	g.subsMu.Lock()
	defer g.subsMu.Unlock()
	ev := model.ClosedEvent(g.id)
	for ch := range g.subs {
		select {
		case ch <- ev:
		default:
		}
		close(ch)
		delete(g.subs, ch)
	}
}

func (g *game) subscriberCount() int {
	g.subsMu.Lock()
	defer g.subsMu.Unlock()
	return len(g.subs)
}

// shutdown stops the actor, the countdown and the queue, in that order.
func (g *game) shutdown(ctx context.Context) error {
	g.driver.Stop()
	err := g.worker.Shutdown(ctx)
	// the actor may have restarted the driver before it exited
	g.driver.Stop()
	_ = g.queue.Close()
	for cmd := range g.queue.Dequeue() {
		if cmd.Reply != nil {
			select {
			case cmd.Reply <- model.Reply{Err: worker.ErrStopped}:
			default:
			}
		}
	}
	g.closeSubscribers()
	return err
}
