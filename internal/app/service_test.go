package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/scramble/internal/adapters/repository"
	service "github.com/okian/scramble/internal/app"
	"github.com/okian/scramble/internal/domain/catalog"
	"github.com/okian/scramble/internal/domain/model"
	"github.com/okian/scramble/internal/domain/scoring"
	"github.com/okian/scramble/internal/domain/session"
	"github.com/okian/scramble/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func testCatalog() *catalog.Catalog {
	c, err := catalog.New(map[string][]string{
		"animals": {"CAT"},
		"colors":  {"RED"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

func newStartedService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithCatalog(testCatalog()),
		service.WithRandSeed(7),
		// long enough that the clock never interferes with unit tests
		service.WithTickInterval(time.Hour),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func do(svc *service.Service, id string, kind model.Kind, mutate ...func(*model.Command)) (model.Reply, error) {
	cmd := model.NewCommand(id, kind)
	for _, m := range mutate {
		m(&cmd)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return svc.Do(ctx, id, cmd)
}

func withCategory(name string) func(*model.Command) {
	return func(c *model.Command) { c.Category = name }
}

func withText(text string) func(*model.Command) {
	return func(c *model.Command) { c.Text = text }
}

func withKey(key string) func(*model.Command) {
	return func(c *model.Command) { c.IdempotencyKey = key }
}

func withGeneration(gen uint64) func(*model.Command) {
	return func(c *model.Command) { c.Generation = gen }
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			cfg := svc.SessionConfig()
			So(cfg.RoundDuration, ShouldEqual, session.DefaultRoundDuration)
			So(cfg.Rules, ShouldResemble, scoring.DefaultRules())
			So(len(svc.Categories()), ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		cfg := session.Config{RoundDuration: 5, Rules: scoring.Rules{CorrectPoints: 3, HintCost: 1}, HintMode: session.HintPrefix}
		svc := service.New(
			service.WithSessionConfig(cfg),
			service.WithCommandQueueSize(4),
			service.WithDedupeSize(100),
			service.WithMaxSessions(2),
		)

		Convey("Then it should be created successfully", func() {
			So(svc.SessionConfig(), ShouldResemble, cfg)
		})
	})

	Convey("Given an invalid session config", t, func() {
		svc := service.New(service.WithSessionConfig(session.Config{RoundDuration: 0}))

		Convey("Then the default config is kept", func() {
			So(svc.SessionConfig(), ShouldResemble, session.DefaultConfig())
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["sessions"], ShouldEqual, 0)
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service with a live session", t, func() {
		svc := newStartedService()
		snap, err := svc.CreateSession(context.Background(), "")
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldBeFalse)
			})

			Convey("And sessions are gone", func() {
				_, err := svc.Snapshot(context.Background(), snap.ID)
				So(errors.Is(err, service.ErrStopped), ShouldBeTrue)
			})

			Convey("And new sessions are refused", func() {
				_, err := svc.CreateSession(context.Background(), "")
				So(errors.Is(err, service.ErrStopped), ShouldBeTrue)
			})

			Convey("And stopping again is harmless", func() {
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})
}

func TestService_CreateSession(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStartedService(service.WithMaxSessions(2))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When creating a session", func() {
			snap, err := svc.CreateSession(ctx, "")

			Convey("Then it starts in the menu with zeroed state", func() {
				So(err, ShouldBeNil)
				So(snap.ID, ShouldNotBeEmpty)
				So(snap.Phase, ShouldEqual, session.PhaseMenu)
				So(snap.Score, ShouldEqual, 0)
				So(snap.HighScore, ShouldEqual, 0)
				So(snap.TimeRemaining, ShouldEqual, session.DefaultRoundDuration)
			})

			Convey("And it can be read back", func() {
				got, err := svc.Snapshot(ctx, snap.ID)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, snap)
			})
		})

		Convey("When the session limit is reached", func() {
			_, err := svc.CreateSession(ctx, "")
			So(err, ShouldBeNil)
			_, err = svc.CreateSession(ctx, "")
			So(err, ShouldBeNil)
			_, err = svc.CreateSession(ctx, "")

			Convey("Then further sessions are refused", func() {
				So(errors.Is(err, service.ErrTooManySessions), ShouldBeTrue)
			})
		})

		Convey("When looking up an unknown session", func() {
			_, err := svc.Snapshot(ctx, "nope")

			Convey("Then it is not found", func() {
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Do(t *testing.T) {
	Convey("Given a session in the menu", t, func() {
		svc := newStartedService()
		defer svc.Stop()
		snap, err := svc.CreateSession(context.Background(), "")
		So(err, ShouldBeNil)
		id := snap.ID

		Convey("When playing and choosing a category", func() {
			_, err := do(svc, id, model.KindPlay)
			So(err, ShouldBeNil)
			reply, err := do(svc, id, model.KindChooseCategory, withCategory("animals"))

			Convey("Then a round is in progress", func() {
				So(err, ShouldBeNil)
				So(reply.Err, ShouldBeNil)
				So(reply.Snapshot.Phase, ShouldEqual, session.PhasePlaying)
				So(reply.Snapshot.Category, ShouldEqual, "animals")
				So(reply.Snapshot.ScrambledWord, ShouldHaveLength, 3)
			})

			Convey("And a correct guess scores", func() {
				_, _ = do(svc, id, model.KindUpdateGuess, withText("cat"))
				reply, err := do(svc, id, model.KindSubmitGuess)
				So(err, ShouldBeNil)
				So(reply.Err, ShouldBeNil)
				So(reply.Notice.Code, ShouldEqual, session.CodeCorrect)
				So(reply.Snapshot.Score, ShouldEqual, scoring.DefaultCorrectPoints)
				So(reply.Snapshot.UserInput, ShouldBeEmpty)
			})

			Convey("And a wrong guess reports a mismatch", func() {
				_, _ = do(svc, id, model.KindUpdateGuess, withText("dog"))
				reply, err := do(svc, id, model.KindSubmitGuess)
				So(err, ShouldBeNil)
				So(errors.Is(reply.Err, session.ErrGuessMismatch), ShouldBeTrue)
				So(reply.Notice.Code, ShouldEqual, session.CodeWrongGuess)
				So(reply.Snapshot.UserInput, ShouldEqual, "dog")
				So(reply.Snapshot.Score, ShouldEqual, 0)
			})

			Convey("And a hint with no score is refused", func() {
				reply, err := do(svc, id, model.KindRequestHint)
				So(err, ShouldBeNil)
				So(errors.Is(reply.Err, session.ErrInsufficientScore), ShouldBeTrue)
				So(reply.Notice.Code, ShouldEqual, session.CodeInsufficientScore)
			})
		})

		Convey("When choosing an unknown category", func() {
			_, _ = do(svc, id, model.KindPlay)
			reply, err := do(svc, id, model.KindChooseCategory, withCategory("planets"))

			Convey("Then the session stays in category selection", func() {
				So(err, ShouldBeNil)
				So(errors.Is(reply.Err, session.ErrUnknownCategory), ShouldBeTrue)
				So(reply.Snapshot.Phase, ShouldEqual, session.PhaseCategorySelect)
			})
		})

		Convey("When submitting a guess from the menu", func() {
			reply, err := do(svc, id, model.KindSubmitGuess)

			Convey("Then the action is invalid and state is unchanged", func() {
				So(err, ShouldBeNil)
				So(errors.Is(reply.Err, session.ErrInvalidAction), ShouldBeTrue)
				So(reply.Snapshot, ShouldResemble, snap)
			})
		})

		Convey("When sending an internal kind", func() {
			reply, err := do(svc, id, model.Kind("cheat"))

			Convey("Then it is rejected as unknown", func() {
				So(err, ShouldBeNil)
				So(errors.Is(reply.Err, service.ErrUnknownCommand), ShouldBeTrue)
			})
		})
	})
}

func TestService_Idempotency(t *testing.T) {
	Convey("Given a playing session", t, func() {
		svc := newStartedService()
		defer svc.Stop()
		snap, err := svc.CreateSession(context.Background(), "")
		So(err, ShouldBeNil)
		id := snap.ID
		_, _ = do(svc, id, model.KindPlay)
		_, _ = do(svc, id, model.KindChooseCategory, withCategory("animals"))
		_, _ = do(svc, id, model.KindUpdateGuess, withText("CAT"))

		Convey("When the same submit is sent twice with one key", func() {
			first, err := do(svc, id, model.KindSubmitGuess, withKey("k1"))
			So(err, ShouldBeNil)
			_, _ = do(svc, id, model.KindUpdateGuess, withText("CAT"))
			second, err := do(svc, id, model.KindSubmitGuess, withKey("k1"))
			So(err, ShouldBeNil)

			Convey("Then the second is reported as a duplicate and not applied", func() {
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(second.Snapshot.Score, ShouldEqual, scoring.DefaultCorrectPoints)
				So(second.Snapshot.UserInput, ShouldEqual, "CAT")
			})
		})

		Convey("When checking keys directly", func() {
			So(svc.SeenAndRecord(context.Background(), id, "raw"), ShouldBeFalse)
			So(svc.SeenAndRecord(context.Background(), id, "raw"), ShouldBeTrue)

			Convey("Then keys are scoped per session", func() {
				So(svc.SeenAndRecord(context.Background(), "other", "raw"), ShouldBeFalse)
			})
		})
	})
}

func TestService_IdempotencyKeyOfUnappliedAction(t *testing.T) {
	Convey("Given a session in the menu", t, func() {
		svc := newStartedService()
		defer svc.Stop()
		snap, err := svc.CreateSession(context.Background(), "")
		So(err, ShouldBeNil)
		id := snap.ID

		Convey("When an action is sent on a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			cmd := model.NewCommand(id, model.KindPlay)
			cmd.IdempotencyKey = "k-1"
			_, err := svc.Do(ctx, id, cmd)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)

			Convey("Then a retry with the same key is applied", func() {
				retry, err := do(svc, id, model.KindPlay, withKey("k-1"))
				So(err, ShouldBeNil)
				So(retry.Duplicate, ShouldBeFalse)
				So(retry.Snapshot.Phase, ShouldEqual, session.PhaseCategorySelect)

				Convey("And a second retry is a duplicate", func() {
					again, err := do(svc, id, model.KindPlay, withKey("k-1"))
					So(err, ShouldBeNil)
					So(again.Duplicate, ShouldBeTrue)
					So(again.Snapshot.Phase, ShouldEqual, session.PhaseCategorySelect)
				})
			})
		})

		Convey("When the session is closed before the action arrives", func() {
			So(svc.CloseSession(context.Background(), id), ShouldBeNil)
			_, err := do(svc, id, model.KindPlay, withKey("k-2"))

			Convey("Then the key is not kept", func() {
				So(err, ShouldEqual, service.ErrSessionNotFound)
				So(svc.SeenAndRecord(context.Background(), id, "k-2"), ShouldBeFalse)
			})
		})
	})
}

func TestService_StaleTicks(t *testing.T) {
	Convey("Given a playing session with a two second round and a stopped clock", t, func() {
		svc := newStartedService(service.WithSessionConfig(session.Config{
			RoundDuration: 2,
			Rules:         scoring.DefaultRules(),
			HintMode:      session.HintDisclose,
		}))
		defer svc.Stop()
		snap, err := svc.CreateSession(context.Background(), "")
		So(err, ShouldBeNil)
		id := snap.ID
		_, _ = do(svc, id, model.KindPlay)
		started, err := do(svc, id, model.KindChooseCategory, withCategory("animals"))
		So(err, ShouldBeNil)
		So(started.Snapshot.TimeRemaining, ShouldEqual, 2)

		Convey("When a tick from an unknown generation arrives", func() {
			reply, err := do(svc, id, model.KindTick, withGeneration(999))

			Convey("Then the round is untouched", func() {
				So(err, ShouldBeNil)
				So(reply.Err, ShouldBeNil)
				So(reply.Snapshot.Phase, ShouldEqual, session.PhasePlaying)
				So(reply.Snapshot.TimeRemaining, ShouldEqual, 2)
			})
		})

		Convey("When the round is ended by its own ticks and restarted", func() {
			_, _ = do(svc, id, model.KindTick, withGeneration(1))
			ended, err := do(svc, id, model.KindTick, withGeneration(1))
			So(err, ShouldBeNil)
			So(ended.Snapshot.Phase, ShouldEqual, session.PhaseResults)

			late, err := do(svc, id, model.KindTick, withGeneration(1))
			So(err, ShouldBeNil)
			So(late.Snapshot.Phase, ShouldEqual, session.PhaseResults)

			restarted, err := do(svc, id, model.KindRestart)
			So(err, ShouldBeNil)
			So(restarted.Snapshot.Round, ShouldEqual, 2)

			Convey("Then a late tick of the first round is ignored", func() {
				stale, err := do(svc, id, model.KindTick, withGeneration(1))
				So(err, ShouldBeNil)
				So(stale.Snapshot.Phase, ShouldEqual, session.PhasePlaying)
				So(stale.Snapshot.TimeRemaining, ShouldEqual, 2)

				Convey("And a tick of the new round counts", func() {
					current, err := do(svc, id, model.KindTick, withGeneration(2))
					So(err, ShouldBeNil)
					So(current.Snapshot.TimeRemaining, ShouldEqual, 1)
				})
			})
		})
	})
}

func TestService_StoredBestAcrossSessions(t *testing.T) {
	Convey("Given a player session and a higher best stored by another session", t, func() {
		store := repository.NewMemoryStore()
		svc := newStartedService(
			service.WithScoreStore(store),
			service.WithSessionConfig(session.Config{
				RoundDuration: 1,
				Rules:         scoring.DefaultRules(),
				HintMode:      session.HintDisclose,
			}),
		)
		defer svc.Stop()
		ctx := context.Background()
		snap, err := svc.CreateSession(ctx, "player-1")
		So(err, ShouldBeNil)
		So(snap.HighScore, ShouldEqual, 0)
		id := snap.ID
		_, _, err = store.RecordBest(ctx, "player-1", 50)
		So(err, ShouldBeNil)

		Convey("When the round ends with a lower score", func() {
			_, _ = do(svc, id, model.KindPlay)
			_, _ = do(svc, id, model.KindChooseCategory, withCategory("animals"))
			_, _ = do(svc, id, model.KindUpdateGuess, withText("cat"))
			solved, err := do(svc, id, model.KindSubmitGuess)
			So(err, ShouldBeNil)
			So(solved.Snapshot.Score, ShouldBeGreaterThan, 0)
			ended, err := do(svc, id, model.KindTick, withGeneration(1))
			So(err, ShouldBeNil)

			Convey("Then the snapshot keeps the session high score and the store keeps its best", func() {
				So(ended.Snapshot.Phase, ShouldEqual, session.PhaseResults)
				So(ended.Snapshot.HighScore, ShouldEqual, solved.Snapshot.Score)
				best, err := store.Best(ctx, "player-1")
				So(err, ShouldBeNil)
				So(best, ShouldEqual, 50)
			})

			Convey("Then the next session of the player starts from the stored best", func() {
				next, err := svc.CreateSession(ctx, "player-1")
				So(err, ShouldBeNil)
				So(next.HighScore, ShouldEqual, 50)
			})
		})
	})
}

func TestService_CloseSession(t *testing.T) {
	Convey("Given a session with a subscriber", t, func() {
		svc := newStartedService()
		defer svc.Stop()
		ctx := context.Background()
		snap, err := svc.CreateSession(ctx, "")
		So(err, ShouldBeNil)
		events, cancel, err := svc.Subscribe(ctx, snap.ID)
		So(err, ShouldBeNil)
		defer cancel()
		<-events

		Convey("When closing the session", func() {
			So(svc.CloseSession(ctx, snap.ID), ShouldBeNil)

			Convey("Then the subscriber sees a closed event and the channel ends", func() {
				ev, ok := <-events
				So(ok, ShouldBeTrue)
				So(ev.Type, ShouldEqual, model.EventClosed)
				_, ok = <-events
				So(ok, ShouldBeFalse)
			})

			Convey("And the session is gone", func() {
				_, err := svc.Snapshot(ctx, snap.ID)
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				So(errors.Is(svc.CloseSession(ctx, snap.ID), service.ErrSessionNotFound), ShouldBeTrue)
			})

			Convey("And cancelling afterwards is harmless", func() {
				So(cancel, ShouldNotPanic)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithCatalog(testCatalog()))

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats["started"], ShouldBeFalse)
				So(stats["categories"], ShouldEqual, 2)
				So(stats["roundDuration"], ShouldEqual, session.DefaultRoundDuration)
				So(stats, ShouldNotContainKey, "sessions")
			})
		})

		Convey("When getting stats after starting with a session", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()
			_, err := svc.CreateSession(context.Background(), "")
			So(err, ShouldBeNil)
			stats := svc.GetStats()

			Convey("Then live counters are included", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["sessions"], ShouldEqual, 1)
				So(stats["subscribers"], ShouldEqual, 0)
			})
		})
	})
}
