// Package service provides the game service that owns every live session and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scramble/internal/adapters/mq/queue"
	"github.com/okian/scramble/internal/adapters/mq/worker"
	"github.com/okian/scramble/internal/adapters/repository"
	"github.com/okian/scramble/internal/domain/catalog"
	"github.com/okian/scramble/internal/domain/countdown"
	"github.com/okian/scramble/internal/domain/dedupe"
	"github.com/okian/scramble/internal/domain/model"
	"github.com/okian/scramble/internal/domain/session"
	"github.com/okian/scramble/pkg/logger"
	"github.com/okian/scramble/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize        = 64
	defaultMaxSessions      = 10000
	defaultIdleTimeout      = 30 * time.Minute
	defaultJanitorInterval  = time.Minute
	defaultDedupeSize       = 50000
	defaultSubscriberBuffer = 32
	sessionShutdownTimeout  = 5 * time.Second
)

// Reasons a session leaves the registry.
const (
	CloseReasonDeleted  = "deleted"
	CloseReasonIdle     = "idle"
	CloseReasonShutdown = "shutdown"
)

// Service implements the API dependencies for the game.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog *catalog.Catalog
	store   repository.Store
	deduper dedupe.Deduper
	games   map[string]*game

	// Configuration
	sessionCfg       session.Config
	tickInterval     time.Duration
	queueSize        int
	maxSessions      int
	idleTimeout      time.Duration
	janitorInterval  time.Duration
	dedupeSize       int
	subscriberBuffer int
	seed             *uint64
	seedRand         *rand.Rand

	// State
	started bool
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessionCfg:       session.DefaultConfig(),
		tickInterval:     countdown.DefaultInterval,
		queueSize:        defaultQueueSize,
		maxSessions:      defaultMaxSessions,
		idleTimeout:      defaultIdleTimeout,
		janitorInterval:  defaultJanitorInterval,
		dedupeSize:       defaultDedupeSize,
		subscriberBuffer: defaultSubscriberBuffer,
		games:            make(map[string]*game),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.seed != nil {
		s.seedRand = rand.New(rand.NewPCG(*s.seed, *s.seed^0x9e3779b97f4a7c15)) //nolint:gosec // gameplay randomness
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.started = true

	s.wg.Add(1)
	go s.janitor(s.baseCtx)

	s.logger.Info(ctx, "game service started",
		logger.Int("categories", s.catalog.Len()),
		logger.Int("round_duration", s.sessionCfg.RoundDuration),
		logger.Int("correct_points", s.sessionCfg.Rules.CorrectPoints),
		logger.Int("hint_cost", s.sessionCfg.Rules.HintCost),
		logger.String("hint_mode", string(s.sessionCfg.HintMode)),
		logger.Duration("tick_interval", s.tickInterval),
		logger.Int("max_sessions", s.maxSessions),
	)
	return nil
}

// Stop closes every session, the janitor and the score store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	games := s.games
	s.games = make(map[string]*game)
	s.cancel()
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping game service", logger.Int("sessions", len(games)))

	for id, g := range games {
		s.closeGame(ctx, id, g, CloseReasonShutdown)
	}
	metrics.UpdateSessionsActive(0)
	s.wg.Wait()

	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "error closing score store", logger.Error(err))
	}
	s.logger.Info(ctx, "game service stopped")
}

// CreateSession starts a new session in the menu. A non-empty player key seeds
// the high score from the score store and receives the round results.
func (s *Service) CreateSession(ctx context.Context, player string) (session.Snapshot, error) {
	best := 0
	if player != "" {
		b, err := s.store.Best(ctx, player)
		if err != nil {
			metrics.RecordErrorByComponent("app", "score_store")
			s.log().Warn(ctx, "best score lookup failed", logger.String("player", player), logger.Error(err))
		} else {
			best = b
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return session.Snapshot{}, ErrStopped
	}
	if len(s.games) >= s.maxSessions {
		metrics.RecordErrorByComponent("app", "too_many_sessions")
		return session.Snapshot{}, ErrTooManySessions
	}

	id := uuid.NewString()
	opts := []session.Option{
		session.WithID(id),
		session.WithConfig(s.sessionCfg),
		session.WithHighScore(best),
	}
	if s.seedRand != nil {
		opts = append(opts, session.WithRand(rand.New(rand.NewPCG(s.seedRand.Uint64(), s.seedRand.Uint64())))) //nolint:gosec // gameplay randomness
	}
	sess := session.New(s.catalog, opts...)
	snap := sess.Snapshot()

	g := newGame(id, player, sess, s.store, s.tickInterval, s.queueSize, s.subscriberBuffer,
		s.logger.Named("session").With(logger.String("session_id", id)))
	s.games[id] = g
	go g.worker.Run(s.baseCtx)

	metrics.RecordSessionCreated()
	metrics.UpdateSessionsActive(len(s.games))
	s.logger.Debug(ctx, "session created", logger.String("session_id", id), logger.Bool("has_player", player != ""))
	return snap, nil
}

// Do runs cmd against session id and waits for the result. Transport failures
// (unknown session, backpressure, cancellation) come back as the error; game
// outcomes come back in Reply.Err.
func (s *Service) Do(ctx context.Context, id string, cmd model.Command) (model.Reply, error) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	g, err := s.lookup(id)
	if err != nil {
		return model.Reply{}, err
	}

	key := cmd.IdempotencyKey
	if key != "" && cmd.Kind.Mutates() {
		if s.SeenAndRecord(ctx, id, key) {
			reply, err := s.send(ctx, g, model.NewCommand(id, model.KindSnapshot))
			reply.Duplicate = true
			return reply, err
		}
	} else {
		key = ""
	}

	// a key is only kept once the actor has the command; a retry of an
	// action that never reached it must run
	cmd, err = s.enqueue(ctx, g, cmd)
	if err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, id, key)
		}
		return model.Reply{}, err
	}
	reply, err := s.await(ctx, g, cmd)
	if errors.Is(err, ErrSessionNotFound) && key != "" {
		s.deduper.Unrecord(ctx, id, key)
	}
	if err == nil && cmd.Kind != model.KindSnapshot {
		g.touch()
	}
	return reply, err
}

// Snapshot returns the current state of session id.
func (s *Service) Snapshot(ctx context.Context, id string) (session.Snapshot, error) {
	reply, err := s.Do(ctx, id, model.NewCommand(id, model.KindSnapshot))
	if err != nil {
		return session.Snapshot{}, err
	}
	return reply.Snapshot, nil
}

// Subscribe streams events of session id. The first event is the current
// state. The channel is closed when cancel is called or the session closes.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan model.Event, func(), error) {
	g, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan model.Event, g.subsBuf)
	cmd := model.NewCommand(id, model.KindSubscribe)
	cmd.Events = ch
	if _, err := s.send(ctx, g, cmd); err != nil {
		return nil, nil, err
	}
	var once sync.Once
	cancel := func() {
		once.Do(func() { g.removeSubscriber(ch) })
	}
	return ch, cancel, nil
}

// CloseSession stops and removes session id.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	g, ok := s.games[id]
	if ok {
		delete(s.games, id)
	}
	n := len(s.games)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	metrics.UpdateSessionsActive(n)
	s.closeGame(ctx, id, g, CloseReasonDeleted)
	return nil
}

// Categories lists the playable categories.
func (s *Service) Categories() []catalog.Category {
	return s.catalog.Categories()
}

// SessionConfig returns the parameters every new session uses.
func (s *Service) SessionConfig() session.Config {
	return s.sessionCfg
}

// SeenAndRecord atomically checks if an idempotency key was seen for a session
// and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, sessionID, key string) bool {
	seen := s.deduper.SeenAndRecord(ctx, sessionID, key)
	if seen {
		metrics.RecordDuplicateAction()
	}
	return seen
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"maxSessions":     s.maxSessions,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"roundDuration":   s.sessionCfg.RoundDuration,
		"correctPoints":   s.sessionCfg.Rules.CorrectPoints,
		"hintCost":        s.sessionCfg.Rules.HintCost,
		"hintMode":        s.sessionCfg.HintMode,
		"tickIntervalMs":  s.tickInterval.Milliseconds(),
		"categories":      s.catalog.Len(),
		"idleTimeoutSecs": int(s.idleTimeout.Seconds()),
	}

	if s.started {
		subscribers := 0
		queued := 0
		for _, g := range s.games {
			subscribers += g.subscriberCount()
			queued += g.queue.Len()
		}
		stats["sessions"] = len(s.games)
		stats["subscribers"] = subscribers
		stats["queuedCommands"] = queued
		stats["idempotencyKeys"] = s.deduper.Size()
		metrics.UpdateSessionsActive(len(s.games))
	}

	return stats
}

// send enqueues cmd on the session actor and waits for its reply.
func (s *Service) send(ctx context.Context, g *game, cmd model.Command) (model.Reply, error) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	cmd, err := s.enqueue(ctx, g, cmd)
	if err != nil {
		return model.Reply{}, err
	}
	return s.await(ctx, g, cmd)
}

// enqueue hands cmd to the session actor. On error the command was not queued.
func (s *Service) enqueue(ctx context.Context, g *game, cmd model.Command) (model.Command, error) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	cmd.SessionID = g.id
	if cmd.Reply == nil {
		cmd.Reply = make(chan model.Reply, 1)
	}
	if cmd.EnqueuedAt.IsZero() {
		cmd.EnqueuedAt = time.Now()
	}

	if err := g.queue.Enqueue(ctx, cmd); err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueFull):
			metrics.RecordErrorByComponent("app", "backpressure")
			return cmd, fmt.Errorf("%w: session %s", ErrBackpressure, g.id)
		case errors.Is(err, queue.ErrQueueClosed):
			return cmd, ErrSessionNotFound
		default:
			return cmd, err
		}
	}
	return cmd, nil
}

// await waits for the actor's reply to a queued command. A stopped actor
// answers without applying it.
func (s *Service) await(ctx context.Context, g *game, cmd model.Command) (model.Reply, error) { //nolint:gocritic // hugeParam: Command is passed by value for channel semantics
	select {
	case reply := <-cmd.Reply:
		if errors.Is(reply.Err, worker.ErrStopped) {
			return model.Reply{}, ErrSessionNotFound
		}
		return reply, nil
	case <-ctx.Done():
		return model.Reply{}, fmt.Errorf("session %s: %w", g.id, ctx.Err())
	}
}

func (s *Service) lookup(id string) (*game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrStopped
	}
	g, ok := s.games[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return g, nil
}

func (s *Service) closeGame(ctx context.Context, id string, g *game, reason string) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionShutdownTimeout)
	defer cancel()
	if err := g.shutdown(sctx); err != nil {
		s.log().Warn(ctx, "session shutdown incomplete", logger.String("session_id", id), logger.Error(err))
	}
	if s.deduper != nil {
		s.deduper.Forget(ctx, id)
	}
	metrics.RecordSessionClosed(reason)
	s.log().Debug(ctx, "session closed", logger.String("session_id", id), logger.String("reason", reason))
}

// janitor closes sessions without player actions for longer than idleTimeout.
func (s *Service) janitor(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

func (s *Service) sweep(ctx context.Context, now time.Time) {
	s.mu.Lock()
	idle := make(map[string]*game)
	for id, g := range s.games {
		if g.idleFor(now) > s.idleTimeout {
			idle[id] = g
			delete(s.games, id)
		}
	}
	n := len(s.games)
	s.mu.Unlock()

	if len(idle) == 0 {
		return
	}
	metrics.UpdateSessionsActive(n)
	for id, g := range idle {
		s.closeGame(ctx, id, g, CloseReasonIdle)
	}
	s.log().Info(ctx, "evicted idle sessions", logger.Int("count", len(idle)), logger.Int("remaining", n))
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get().Named("app")
	}
	return s.logger
}
