package bracket

import (
	"context"
	"fmt"
	"log"

	"Showdown/models"

	"gorm.io/gorm"
)

type PickRequest struct {
	RunID             uint
	MatchID           uint
	PickedSelectionID uint
}

type PickResult struct {
	Run           *models.Run
	PreviousMatch *models.Match
	// NextMatch is nil once the run is completed.
	NextMatch *models.Match
	Ordinal   int
	Completed bool
}

// SubmitPick records the winner of a live match and opens the next one, or
// finalizes the run when the decided match was the final.
func (e *Engine) SubmitPick(ctx context.Context, req PickRequest) (*PickResult, error) {
	var result *PickResult
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := e.CatalogFor(tx)

		run, err := models.LockRunByID(tx, req.RunID)
		if err != nil {
			return notFound(err, "run", req.RunID)
		}
		match, err := models.FindMatchByID(tx, req.MatchID)
		if err != nil {
			return notFound(err, "match", req.MatchID)
		}
		if match.RunID != run.ID {
			return fmt.Errorf("match %d in run %d: %w", match.ID, run.ID, ErrNotFound)
		}

		switch {
		case run.IsCompleted():
			return fmt.Errorf("run %d already completed: %w", run.ID, ErrInvalidPick)
		case match.IsBye():
			return fmt.Errorf("match %d is a bye: %w", match.ID, ErrInvalidPick)
		case match.IsDecided():
			return fmt.Errorf("match %d already decided: %w", match.ID, ErrInvalidPick)
		}

		winnerID := req.PickedSelectionID
		loserID, ok := match.Opponent(winnerID)
		if !ok {
			return fmt.Errorf("selection %d not in match %d: %w", winnerID, match.ID, ErrInvalidPick)
		}

		affected, err := models.SetMatchWinner(tx, match.ID, winnerID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("match %d already decided: %w", match.ID, ErrInvalidPick)
		}
		match.WinnerID = &winnerID

		if err := catalog.ApplyStats(winnerID, models.StatsDelta{Wins: 1}); err != nil {
			return err
		}
		if err := catalog.ApplyStats(loserID, models.StatsDelta{Losses: 1}); err != nil {
			return err
		}

		if err := match.LoadSelections(tx); err != nil {
			return err
		}
		result = &PickResult{Run: run, PreviousMatch: match}

		label := match.RoundLabel
		played, err := models.CountRoundMatches(tx, run.ID, label)
		if err != nil {
			return err
		}

		switch {
		case int(played) < label/2:
			candidates, err := e.roundCandidates(tx, run, label)
			if err != nil {
				return err
			}
			used, err := models.RoundSelectionIDs(tx, run.ID, label)
			if err != nil {
				return err
			}
			next, err := e.pairFrom(tx, run.ID, label, without(candidates, used))
			if err != nil {
				return fmt.Errorf("run %d round of %d: %w", run.ID, label, err)
			}
			result.NextMatch = next
			result.Ordinal = int(played) + 1

		case int(played) == label/2 && label > 2:
			winners, err := models.RoundWinnerIDs(tx, run.ID, label)
			if err != nil {
				return err
			}
			if len(winners) != label/2 {
				return fmt.Errorf("run %d round of %d produced %d winners: %w", run.ID, label, len(winners), ErrConsistency)
			}
			next, err := e.pairFrom(tx, run.ID, label/2, winners)
			if err != nil {
				return fmt.Errorf("run %d round of %d: %w", run.ID, label/2, err)
			}
			result.NextMatch = next
			result.Ordinal = 1

		case int(played) == label/2:
			if err := catalog.ApplyStats(winnerID, models.StatsDelta{FinalWins: 1}); err != nil {
				return err
			}
			if err := catalog.ApplyStats(loserID, models.StatsDelta{FinalLosses: 1}); err != nil {
				return err
			}
			completed, err := models.MarkRunCompleted(tx, run)
			if err != nil {
				return err
			}
			if !completed {
				return fmt.Errorf("run %d already completed: %w", run.ID, ErrInvalidPick)
			}
			if err := catalog.IncrementCompletedPlays(run.PoolID); err != nil {
				return err
			}
			result.Completed = true

		default:
			return fmt.Errorf("run %d has %d matches in round of %d: %w", run.ID, played, label, ErrConsistency)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Completed {
		log.Printf("[submitPick] run %d completed, champion selection %d", result.Run.ID, *result.PreviousMatch.WinnerID)
	}
	return result, nil
}

// roundCandidates is everyone entitled to play in the round: the seeded
// roster for the opening round, otherwise the winners of the round before.
func (e *Engine) roundCandidates(tx *gorm.DB, run *models.Run, label int) ([]uint, error) {
	if label == run.RoundSize {
		return append([]uint(nil), run.Entrants...), nil
	}
	return models.RoundWinnerIDs(tx, run.ID, label*2)
}

func without(ids, exclude []uint) []uint {
	skip := make(map[uint]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
