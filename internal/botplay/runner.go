package botplay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scramble/internal/domain/catalog"
	"github.com/okian/scramble/pkg/logger"
)

// ErrNoCategories is returned when the server offers nothing to play.
var ErrNoCategories = errors.New("server has no categories")

// Run plays one round per bot and returns the run report. Individual bot
// failures are recorded in the report; only setup failures return an error.
func Run(ctx context.Context, config *Config) (*Report, error) {
	report := &Report{StartTime: time.Now()}
	log := logger.Get().Named("bot")

	log.Info(ctx, "starting scramble bot run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("bots", config.Bots),
		logger.Int("workers", config.Workers),
		logger.String("category", config.Category),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Load the solver and the server's rules
	solver, err := loadSolver(config.CatalogFile)
	if err != nil {
		return nil, err
	}
	r, err := client.Rules(ctx)
	if err != nil {
		return nil, fmt.Errorf("rules retrieval failed: %w", err)
	}
	categories, err := pickCategories(ctx, client, config.Category)
	if err != nil {
		return nil, err
	}

	// Step 3: Play concurrently
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]BotResult, config.Bots)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range config.Bots {
		b := &bot{
			id:       i + 1,
			client:   client,
			solver:   solver,
			rules:    r,
			category: categories[i%len(categories)],
			think:    config.ThinkTime,
			verbose:  config.Verbose,
			log:      log,
		}
		g.Go(func() error {
			results[i] = b.play(gctx)
			return nil
		})
	}
	_ = g.Wait()

	// Step 4: Verify and summarize
	report.Results = results
	verifyResults(report, r, config.Verbose)

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	displayFinalStats(report)

	log.Info(ctx, "bot run completed")
	return report, nil
}

func loadSolver(path string) (*Solver, error) {
	if path == "" {
		return NewSolver(catalog.Default()), nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	return NewSolver(c), nil
}

func pickCategories(ctx context.Context, client *HTTPClient, want string) ([]string, error) {
	if want != "" {
		return []string{want}, nil
	}
	cats, err := client.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("categories retrieval failed: %w", err)
	}
	if len(cats) == 0 {
		return nil, ErrNoCategories
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names, nil
}

// bot plays a single session through one round.
type bot struct {
	id       int
	client   *HTTPClient
	solver   *Solver
	rules    rules
	category string
	think    time.Duration
	verbose  bool
	log      logger.Logger

	events *eventStream
	solved int
	hints  int
}

func (b *bot) play(ctx context.Context) BotResult {
	res := BotResult{Bot: b.id, Category: b.category}

	snap, err := b.client.CreateSession(ctx, fmt.Sprintf("bot-%d", b.id))
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.SessionID = snap.ID
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.client.timeout)
		defer cancel()
		if err := b.client.CloseSession(cctx, res.SessionID); err != nil {
			b.log.Warn(ctx, "failed to close session", logger.String("session", res.SessionID), logger.Error(err))
		}
	}()

	if b.events, err = b.client.Watch(ctx, snap.ID); err != nil {
		b.log.Warn(ctx, "event stream unavailable; polling instead", logger.Int("bot", b.id), logger.Error(err))
	} else {
		defer func() { _ = b.events.Close() }()
	}

	if _, _, err := b.client.Action(ctx, snap.ID, http.MethodPost, "/play", nil); err != nil {
		res.Err = err.Error()
		return res
	}
	resp, _, err := b.client.Action(ctx, snap.ID, http.MethodPost, "/category", map[string]string{"category": b.category})
	if err != nil {
		res.Err = err.Error()
		return res
	}
	snap = resp.Snapshot
	if snap.Phase != phasePlaying {
		res.Err = fmt.Sprintf("category %q refused: %s", b.category, resp.Message)
		return res
	}

	for snap.Phase == phasePlaying {
		if snap, err = b.playWord(ctx, snap, &res); err != nil {
			res.Err = err.Error()
			return res
		}
		if b.think > 0 {
			select {
			case <-ctx.Done():
				res.Err = ctx.Err().Error()
				return res
			case <-time.After(b.think):
			}
		}
	}

	res.Score = snap.Score
	res.HighScore = snap.HighScore
	res.WordsSolved = snap.WordsSolved
	res.HintsUsed = snap.HintsUsed
	if snap.WordsSolved != b.solved || snap.HintsUsed != b.hints {
		res.Err = fmt.Sprintf("server counted %d words and %d hints, bot counted %d and %d",
			snap.WordsSolved, snap.HintsUsed, b.solved, b.hints)
	}
	if b.verbose {
		b.log.Info(ctx, "bot finished",
			logger.Int("bot", b.id),
			logger.String("category", b.category),
			logger.Int("score", res.Score),
			logger.Int("wordsSolved", res.WordsSolved),
			logger.Int("hintsUsed", res.HintsUsed))
	}
	return res
}

// playWord works on the current scramble until it is solved or the round
// ends, and returns the latest snapshot.
func (b *bot) playWord(ctx context.Context, snap *snapshot, res *BotResult) (*snapshot, error) {
	word := snap.ScrambledWord
	candidates := b.solver.Candidates(b.category, word, snap.Revealed)

	if len(candidates) > 1 && snap.Revealed == "" && b.rules.HintCost > 0 && snap.Score >= b.rules.HintCost {
		resp, _, err := b.client.Action(ctx, snap.ID, http.MethodPost, "/hint", nil)
		if err != nil {
			return nil, err
		}
		snap = resp.Snapshot
		if snap.Phase != phasePlaying {
			return snap, nil
		}
		if resp.Notice != nil && resp.Notice.Code == codeHint {
			b.hints++
		}
		candidates = b.solver.Candidates(b.category, word, snap.Revealed)
	}

	if len(candidates) > maxGuessesPerWord {
		candidates = candidates[:maxGuessesPerWord]
	}
	for _, guess := range candidates {
		resp, _, err := b.client.Action(ctx, snap.ID, http.MethodPut, "/guess", map[string]string{"text": guess})
		if err == nil && resp.Snapshot.Phase == phasePlaying {
			resp, _, err = b.client.Action(ctx, snap.ID, http.MethodPost, "/submit", nil)
		}
		if err != nil {
			return nil, err
		}
		snap = resp.Snapshot
		if snap.Phase != phasePlaying {
			return snap, nil
		}
		if resp.Notice == nil {
			continue
		}
		switch resp.Notice.Code {
		case codeCorrect:
			b.solved++
			return snap, nil
		case codeWrongGuess:
			res.WrongGuesses++
		}
	}

	// nothing left to try: wait for the clock
	res.Unsolved = append(res.Unsolved, word)
	return b.waitForRoundEnd(ctx, snap)
}

// waitForRoundEnd blocks until the current round is over. It follows the
// event stream when one is open and polls otherwise. Words only advance on a
// correct guess, so nothing but the clock can change the session meanwhile.
func (b *bot) waitForRoundEnd(ctx context.Context, snap *snapshot) (*snapshot, error) {
	// the stream may still deliver states from before snap
	changed := func(next *snapshot) bool {
		return next.Round > snap.Round || (next.Round == snap.Round && next.Phase != phasePlaying)
	}

	var states <-chan *snapshot
	if b.events != nil {
		states = b.events.states
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case next, ok := <-states:
			if !ok {
				// stream ended; fall back to polling
				states = nil
				continue
			}
			if changed(next) {
				return next, nil
			}
			continue
		case <-ticker.C:
			if states != nil {
				continue
			}
		}
		next, err := b.client.Snapshot(ctx, snap.ID)
		if err != nil {
			return nil, err
		}
		if changed(next) {
			return next, nil
		}
	}
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(report *Report) {
	var successRate float64
	if n := len(report.Results); n > 0 {
		successRate = float64(report.Rounds) / float64(n) * PercentageMultiplier
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("bots", len(report.Results)),
		logger.Int("rounds", report.Rounds),
		logger.Int("failures", report.Failures),
		logger.Int("mismatches", report.Mismatches),
		logger.Int("bestScore", report.BestScore),
		logger.Float64("averageScore", report.AverageScore),
		logger.Float64("successRate", successRate),
		logger.String("duration", report.Duration.String()))
}
