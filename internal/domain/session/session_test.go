package session_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/okian/scramble/internal/domain/catalog"
	"github.com/okian/scramble/internal/domain/scoring"
	"github.com/okian/scramble/internal/domain/scramble"
	"github.com/okian/scramble/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func giraffeCatalog() *catalog.Catalog {
	c, err := catalog.New(map[string][]string{
		"animals": {"GIRAFFE"},
		"food":    {},
	})
	if err != nil {
		panic(err)
	}
	return c
}

func newSession(opts ...session.Option) *session.Session {
	opts = append([]session.Option{session.WithRand(rand.New(rand.NewPCG(11, 12)))}, opts...)
	return session.New(giraffeCatalog(), opts...)
}

// playing returns a session already inside a round of animals.
func playing(opts ...session.Option) *session.Session {
	s := newSession(opts...)
	So(s.Play(), ShouldBeNil)
	So(s.ChooseCategory("animals"), ShouldBeNil)
	return s
}

func solve(s *session.Session) {
	So(s.UpdateGuess("giraffe"), ShouldBeNil)
	_, err := s.SubmitGuess()
	So(err, ShouldBeNil)
}

func TestSession_Lifecycle(t *testing.T) {
	Convey("Given a new session", t, func() {
		s := newSession()

		Convey("Then it starts in the menu with zero scores", func() {
			snap := s.Snapshot()
			So(snap.Phase, ShouldEqual, session.PhaseMenu)
			So(snap.Score, ShouldEqual, 0)
			So(snap.HighScore, ShouldEqual, 0)
			So(snap.ScrambledWord, ShouldBeEmpty)
		})

		Convey("When play is pressed", func() {
			So(s.Play(), ShouldBeNil)

			Convey("Then category selection is shown", func() {
				So(s.Phase(), ShouldEqual, session.PhaseCategorySelect)
			})

			Convey("And a category is chosen", func() {
				So(s.ChooseCategory("Animals"), ShouldBeNil)
				snap := s.Snapshot()

				Convey("Then the round is reset and a scramble is shown", func() {
					So(snap.Phase, ShouldEqual, session.PhasePlaying)
					So(snap.Category, ShouldEqual, "animals")
					So(snap.Score, ShouldEqual, 0)
					So(snap.TimeRemaining, ShouldEqual, session.DefaultRoundDuration)
					So(snap.Round, ShouldEqual, 1)
					So(scramble.IsPermutation(snap.ScrambledWord, "GIRAFFE"), ShouldBeTrue)
					So(snap.UserInput, ShouldBeEmpty)
					So(snap.Answer, ShouldBeEmpty)
				})
			})
		})
	})
}

func TestSession_ScenarioA_CorrectGuess(t *testing.T) {
	Convey("Given animals is being played with the word GIRAFFE", t, func() {
		s := playing()

		Convey("When the player types giraffe and submits", func() {
			So(s.UpdateGuess("giraffe"), ShouldBeNil)
			notice, err := s.SubmitGuess()
			snap := s.Snapshot()

			Convey("Then ten points are awarded and the next word is drawn", func() {
				So(err, ShouldBeNil)
				So(notice.Level, ShouldEqual, session.LevelSuccess)
				So(notice.Message, ShouldEqual, "Correct! +10 points")
				So(snap.Score, ShouldEqual, scoring.DefaultCorrectPoints)
				So(snap.UserInput, ShouldBeEmpty)
				So(snap.WordsSolved, ShouldEqual, 1)
				So(scramble.IsPermutation(snap.ScrambledWord, "GIRAFFE"), ShouldBeTrue)
			})
		})
	})
}

func TestSession_WrongGuess(t *testing.T) {
	Convey("Given a round with score 10", t, func() {
		s := playing()
		solve(s)

		Convey("When the same wrong guess is submitted twice", func() {
			So(s.UpdateGuess("zebra"), ShouldBeNil)
			n1, err1 := s.SubmitGuess()
			n2, err2 := s.SubmitGuess()

			Convey("Then both are rejected and nothing changes", func() {
				So(errors.Is(err1, session.ErrGuessMismatch), ShouldBeTrue)
				So(errors.Is(err2, session.ErrGuessMismatch), ShouldBeTrue)
				So(n1.Message, ShouldEqual, "Try again!")
				So(n2.Level, ShouldEqual, session.LevelFailure)
				snap := s.Snapshot()
				So(snap.Score, ShouldEqual, 10)
				So(snap.UserInput, ShouldEqual, "zebra")
			})
		})

		Convey("When the guess has surrounding whitespace", func() {
			So(s.UpdateGuess("giraffe "), ShouldBeNil)
			_, err := s.SubmitGuess()

			Convey("Then it does not match", func() {
				So(errors.Is(err, session.ErrGuessMismatch), ShouldBeTrue)
			})
		})
	})
}

func TestSession_ScenarioB_HintRefused(t *testing.T) {
	Convey("Given the five-point variant with score 1", t, func() {
		cfg := session.DefaultConfig()
		cfg.Rules = scoring.Rules{CorrectPoints: 5, HintCost: 2}
		s := playing(session.WithConfig(cfg))
		solve(s)
		_, err := s.RequestHint()
		So(err, ShouldBeNil)
		_, err = s.RequestHint()
		So(err, ShouldBeNil)
		So(s.Snapshot().Score, ShouldEqual, 1)

		Convey("When a hint is requested", func() {
			notice, err := s.RequestHint()

			Convey("Then it is rejected and the score is unchanged", func() {
				So(errors.Is(err, session.ErrInsufficientScore), ShouldBeTrue)
				So(notice.Message, ShouldEqual, "Not enough points for hint!")
				So(s.Snapshot().Score, ShouldEqual, 1)
				So(s.Snapshot().HintsUsed, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a fresh round with score 0", t, func() {
		s := playing()

		Convey("Then a hint is refused", func() {
			_, err := s.RequestHint()
			So(errors.Is(err, session.ErrInsufficientScore), ShouldBeTrue)
			So(s.Snapshot().Revealed, ShouldBeEmpty)
		})
	})
}

func TestSession_ScenarioC_HintGranted(t *testing.T) {
	Convey("Given score 10", t, func() {
		s := playing()
		solve(s)

		Convey("When a hint is requested in disclose mode", func() {
			notice, err := s.RequestHint()
			snap := s.Snapshot()

			Convey("Then two points are paid and the first letter revealed", func() {
				So(err, ShouldBeNil)
				So(snap.Score, ShouldEqual, 8)
				So(notice.Message, ShouldEqual, "First letter is G")
				So(snap.Revealed, ShouldEqual, "G")
				So(snap.UserInput, ShouldBeEmpty)
				So(snap.HintsUsed, ShouldEqual, 1)
			})
		})
	})

	Convey("Given score 10 in prefix mode", t, func() {
		cfg := session.DefaultConfig()
		cfg.HintMode = session.HintPrefix
		s := playing(session.WithConfig(cfg))
		solve(s)
		So(s.UpdateGuess("XYZ"), ShouldBeNil)

		Convey("When a hint is requested", func() {
			_, err := s.RequestHint()

			Convey("Then the guess buffer holds the first letter", func() {
				So(err, ShouldBeNil)
				So(s.Snapshot().UserInput, ShouldEqual, "G")
				So(s.Snapshot().Score, ShouldEqual, 8)
			})
		})
	})

	Convey("Given many hints in a row", t, func() {
		s := playing()
		solve(s)

		Convey("Then the score never drops below zero", func() {
			for i := 0; i < 10; i++ {
				_, _ = s.RequestHint()
				So(s.Snapshot().Score, ShouldBeGreaterThanOrEqualTo, 0)
			}
			So(s.Snapshot().Score, ShouldEqual, 0)
			So(s.Snapshot().HintsUsed, ShouldEqual, 5)
		})
	})
}

func TestSession_ScenarioD_TimeUp(t *testing.T) {
	Convey("Given score 40, high score 20 and one second left", t, func() {
		cfg := session.DefaultConfig()
		cfg.RoundDuration = 3
		s := playing(session.WithConfig(cfg), session.WithHighScore(20))
		for i := 0; i < 4; i++ {
			solve(s)
		}
		for i := 0; i < 2; i++ {
			_, expired, err := s.Tick()
			So(err, ShouldBeNil)
			So(expired, ShouldBeFalse)
		}
		So(s.Snapshot().TimeRemaining, ShouldEqual, 1)

		Convey("When one tick elapses", func() {
			notice, expired, err := s.Tick()
			snap := s.Snapshot()

			Convey("Then the round ends and the high score is latched", func() {
				So(err, ShouldBeNil)
				So(expired, ShouldBeTrue)
				So(notice.Message, ShouldEqual, "Time's up!")
				So(snap.TimeRemaining, ShouldEqual, 0)
				So(snap.Phase, ShouldEqual, session.PhaseResults)
				So(snap.HighScore, ShouldEqual, 40)
				So(snap.Score, ShouldEqual, 40)
				So(snap.Answer, ShouldEqual, "GIRAFFE")
				So(snap.ScrambledWord, ShouldBeEmpty)
			})

			Convey("And further ticks are invalid", func() {
				_, _, err := s.Tick()
				So(errors.Is(err, session.ErrInvalidAction), ShouldBeTrue)
			})
		})
	})

	Convey("Given a lower score than the high score", t, func() {
		cfg := session.DefaultConfig()
		cfg.RoundDuration = 1
		s := playing(session.WithConfig(cfg), session.WithHighScore(50))
		solve(s)

		Convey("Then the high score is kept", func() {
			_, expired, err := s.Tick()
			So(err, ShouldBeNil)
			So(expired, ShouldBeTrue)
			So(s.Snapshot().HighScore, ShouldEqual, 50)
		})
	})
}

func TestSession_TimerCountsDown(t *testing.T) {
	Convey("Given a fresh round", t, func() {
		s := playing()

		Convey("Then each tick removes exactly one second and only the last ends the round", func() {
			transitions := 0
			for want := session.DefaultRoundDuration - 1; want >= 0; want-- {
				_, expired, err := s.Tick()
				So(err, ShouldBeNil)
				So(s.Snapshot().TimeRemaining, ShouldEqual, want)
				if expired {
					transitions++
				}
			}
			So(transitions, ShouldEqual, 1)
			So(s.Phase(), ShouldEqual, session.PhaseResults)
		})
	})
}

func TestSession_ScenarioE_UnknownCategory(t *testing.T) {
	Convey("Given category selection", t, func() {
		s := newSession()
		So(s.Play(), ShouldBeNil)

		Convey("When an empty category is chosen", func() {
			err := s.ChooseCategory("food")

			Convey("Then it is unknown and the phase stays", func() {
				So(errors.Is(err, session.ErrUnknownCategory), ShouldBeTrue)
				So(errors.Is(err, catalog.ErrUnknownCategory), ShouldBeTrue)
				So(s.Phase(), ShouldEqual, session.PhaseCategorySelect)
				So(s.Snapshot().Category, ShouldBeEmpty)
			})
		})

		Convey("When an absent category is chosen", func() {
			err := s.ChooseCategory("planets")

			Convey("Then it is unknown and the phase stays", func() {
				So(errors.Is(err, session.ErrUnknownCategory), ShouldBeTrue)
				So(s.Phase(), ShouldEqual, session.PhaseCategorySelect)
			})
		})
	})
}

func TestSession_InvalidActions(t *testing.T) {
	Convey("Given a session in the menu", t, func() {
		s := newSession()
		before := s.Snapshot()

		Convey("Then round actions are rejected without mutation", func() {
			_, err := s.SubmitGuess()
			So(errors.Is(err, session.ErrInvalidAction), ShouldBeTrue)
			_, err = s.RequestHint()
			So(errors.Is(err, session.ErrInvalidAction), ShouldBeTrue)
			So(errors.Is(s.UpdateGuess("x"), session.ErrInvalidAction), ShouldBeTrue)
			So(errors.Is(s.ChooseCategory("animals"), session.ErrInvalidAction), ShouldBeTrue)
			So(errors.Is(s.PlayAgain(), session.ErrInvalidAction), ShouldBeTrue)
			So(errors.Is(s.Restart(), session.ErrInvalidAction), ShouldBeTrue)
			So(errors.Is(s.ReturnToMenu(), session.ErrInvalidAction), ShouldBeTrue)
			_, _, err = s.Tick()
			So(errors.Is(err, session.ErrInvalidAction), ShouldBeTrue)
			So(s.Snapshot(), ShouldResemble, before)
		})
	})

	Convey("Given a session in play", t, func() {
		s := playing()

		Convey("Then play and menu are rejected", func() {
			So(errors.Is(s.Play(), session.ErrInvalidAction), ShouldBeTrue)
			So(errors.Is(s.ReturnToMenu(), session.ErrInvalidAction), ShouldBeTrue)
			So(s.Phase(), ShouldEqual, session.PhasePlaying)
		})
	})
}

func TestSession_AfterResults(t *testing.T) {
	Convey("Given a finished round in animals", t, func() {
		cfg := session.DefaultConfig()
		cfg.RoundDuration = 1
		s := playing(session.WithConfig(cfg))
		solve(s)
		_, _, err := s.Tick()
		So(err, ShouldBeNil)

		Convey("When playing again", func() {
			So(s.PlayAgain(), ShouldBeNil)

			Convey("Then category selection keeps the category preselected", func() {
				So(s.Phase(), ShouldEqual, session.PhaseCategorySelect)
				So(s.Snapshot().Category, ShouldEqual, "animals")
			})
		})

		Convey("When returning to the menu", func() {
			So(s.ReturnToMenu(), ShouldBeNil)

			Convey("Then the category is cleared", func() {
				So(s.Phase(), ShouldEqual, session.PhaseMenu)
				So(s.Snapshot().Category, ShouldBeEmpty)
			})
		})

		Convey("When restarting", func() {
			So(s.Restart(), ShouldBeNil)
			snap := s.Snapshot()

			Convey("Then a fresh round starts in the same category", func() {
				So(snap.Phase, ShouldEqual, session.PhasePlaying)
				So(snap.Category, ShouldEqual, "animals")
				So(snap.Score, ShouldEqual, 0)
				So(snap.TimeRemaining, ShouldEqual, 1)
				So(snap.Round, ShouldEqual, 2)
				So(snap.HighScore, ShouldEqual, 10)
				So(snap.WordsSolved, ShouldEqual, 0)
			})
		})
	})
}

func TestSession_HighScoreAcrossRounds(t *testing.T) {
	Convey("Given several rounds with varying scores", t, func() {
		cfg := session.DefaultConfig()
		cfg.RoundDuration = 1
		s := playing(session.WithConfig(cfg))
		solvedPerRound := []int{2, 5, 1, 3}
		best := 0

		for i, n := range solvedPerRound {
			if i > 0 {
				So(s.Restart(), ShouldBeNil)
			}
			for j := 0; j < n; j++ {
				solve(s)
			}
			_, expired, err := s.Tick()
			So(err, ShouldBeNil)
			So(expired, ShouldBeTrue)
			if score := s.Snapshot().Score; score > best {
				best = score
			}
			So(s.Snapshot().HighScore, ShouldEqual, best)
		}

		Convey("Then the high score is the best results score", func() {
			So(s.Snapshot().HighScore, ShouldEqual, 50)
		})
	})
}

func TestSession_ScoreNeverNegative(t *testing.T) {
	Convey("Given random sequences of guesses and hints", t, func() {
		r := rand.New(rand.NewPCG(21, 22))
		s := playing()

		Convey("Then the score stays non-negative and matches the counters", func() {
			rules := s.Config().Rules
			for i := 0; i < 500; i++ {
				switch r.IntN(3) {
				case 0:
					solve(s)
				case 1:
					So(s.UpdateGuess("WRONG"), ShouldBeNil)
					_, _ = s.SubmitGuess()
				default:
					_, _ = s.RequestHint()
				}
				snap := s.Snapshot()
				So(snap.Score, ShouldBeGreaterThanOrEqualTo, 0)
				So(snap.Score, ShouldEqual, rules.Expected(snap.WordsSolved, snap.HintsUsed))
			}
		})
	})
}

func TestPhase(t *testing.T) {
	Convey("Given the phase table", t, func() {
		So(session.PhaseMenu.CanTransitionTo(session.PhaseCategorySelect), ShouldBeTrue)
		So(session.PhaseMenu.CanTransitionTo(session.PhasePlaying), ShouldBeFalse)
		So(session.PhaseCategorySelect.CanTransitionTo(session.PhasePlaying), ShouldBeTrue)
		So(session.PhasePlaying.CanTransitionTo(session.PhaseResults), ShouldBeTrue)
		So(session.PhasePlaying.CanTransitionTo(session.PhaseMenu), ShouldBeFalse)
		So(session.PhaseResults.CanTransitionTo(session.PhasePlaying), ShouldBeTrue)
		So(session.Phase("lobby").CanTransitionTo(session.PhaseMenu), ShouldBeFalse)
		So(session.PhaseResults.String(), ShouldEqual, "results")
	})
}

func TestConfig_Validate(t *testing.T) {
	Convey("Given session configs", t, func() {
		So(session.DefaultConfig().Validate(), ShouldBeNil)

		bad := session.DefaultConfig()
		bad.RoundDuration = 0
		So(errors.Is(bad.Validate(), session.ErrInvalidConfig), ShouldBeTrue)

		bad = session.DefaultConfig()
		bad.HintMode = "shout"
		So(errors.Is(bad.Validate(), session.ErrInvalidConfig), ShouldBeTrue)

		Convey("Then an invalid config passed as an option is ignored", func() {
			s := session.New(giraffeCatalog(), session.WithConfig(bad))
			So(s.Config(), ShouldResemble, session.DefaultConfig())
		})
	})
}
