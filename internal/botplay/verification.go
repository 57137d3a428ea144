package botplay

import (
	"fmt"
	"log"
	"sort"

	"github.com/okian/scramble/internal/domain/scoring"
)

// verifyResults checks every finished round against the scoring rules and
// fills the report totals.
func verifyResults(report *Report, r rules, verbose bool) {
	log.Println("🔍 Verifying results...")

	for i := range report.Results {
		res := &report.Results[i]
		if res.Err != "" {
			report.Failures++
			continue
		}
		report.Rounds++
		report.TotalScore += res.Score
		if res.Score > report.BestScore {
			report.BestScore = res.Score
		}
		if err := verifyScore(res, r); err != nil {
			report.Mismatches++
			log.Printf("⚠️  Bot %d: %v", res.Bot, err)
		}
	}
	if report.Rounds > 0 {
		report.AverageScore = float64(report.TotalScore) / float64(report.Rounds)
	}

	if report.Mismatches == 0 {
		log.Println("✅ Scores consistent with rules")
	}
	displayTopBots(report.Results, verbose)
}

// verifyScore checks one round: the score is fully explained by solved words
// and hints, and the high score covers it.
func verifyScore(res *BotResult, r rules) error {
	want := scoring.Rules{CorrectPoints: r.CorrectPoints, HintCost: r.HintCost}.Expected(res.WordsSolved, res.HintsUsed)
	if res.Score != want {
		return fmt.Errorf("score %d does not match %d words and %d hints (want %d)",
			res.Score, res.WordsSolved, res.HintsUsed, want)
	}
	if res.HighScore < res.Score {
		return fmt.Errorf("high score %d below round score %d", res.HighScore, res.Score)
	}
	return nil
}

// displayTopBots shows the best finished rounds, or all of them when verbose.
func displayTopBots(results []BotResult, verbose bool) {
	finished := make([]BotResult, 0, len(results))
	for _, r := range results {
		if r.Err == "" {
			finished = append(finished, r)
		} else {
			log.Printf("❌ Bot %d failed: %s", r.Bot, r.Err)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].Score > finished[j].Score
	})

	topN := len(finished)
	if !verbose {
		topN = min(defaultTopBots, topN)
	}
	log.Printf("🏆 Top %d bots:", topN)
	for i := 0; i < topN; i++ {
		r := finished[i]
		log.Printf("   %d. bot-%d [%s] - Score: %d, Words: %d, Hints: %d, Wrong: %d, Unsolved: %v",
			i+1, r.Bot, r.Category, r.Score, r.WordsSolved, r.HintsUsed, r.WrongGuesses, r.Unsolved)
	}
}
