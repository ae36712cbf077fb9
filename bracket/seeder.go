package bracket

import (
	"context"
	"fmt"
	"log"

	"Showdown/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SeedRequest struct {
	PoolID        uint
	RequestedSize int
	PlayerID      *uint
}

type SeedResult struct {
	Run   *models.Run
	Match *models.Match
	// Ordinal is the live match's 1-based position in its round, byes included.
	Ordinal int
}

// SeedRun creates a run over every playable selection of the pool. The round
// size is the next power of two above the roster; the shortfall is filled
// with byes and exactly one live match is opened.
func (e *Engine) SeedRun(ctx context.Context, req SeedRequest) (*SeedResult, error) {
	if !IsPowerOfTwo(req.RequestedSize) || req.RequestedSize < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBracketSize, req.RequestedSize)
	}

	var result *SeedResult
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := e.CatalogFor(tx)

		pool, err := catalog.FindPool(req.PoolID)
		if err != nil {
			return notFound(err, "pool", req.PoolID)
		}
		if !pool.IsPlayable() {
			return fmt.Errorf("pool %d: %w", pool.ID, ErrPoolNotPlayable)
		}

		roster, err := catalog.PlayableSelectionIDs(pool.ID)
		if err != nil {
			return err
		}
		if len(roster) < 2 {
			return fmt.Errorf("pool %d has %d playable selections: %w", pool.ID, len(roster), ErrInsufficientCandidates)
		}

		roundSize := NextPowerOfTwo(len(roster))
		byes := roundSize - len(roster)

		run := models.Run{
			PoolID:        pool.ID,
			PlayerID:      req.PlayerID,
			RequestedSize: req.RequestedSize,
			RoundSize:     roundSize,
			EntrantCount:  len(roster),
			Entrants:      datatypes.JSONSlice[uint](roster),
		}
		run.Prepare()
		if msgs := run.Validate(); len(msgs) > 0 {
			return fmt.Errorf("invalid run: %v", msgs)
		}
		if _, err := run.SaveRun(tx); err != nil {
			return err
		}

		order := append([]uint(nil), roster...)
		e.Shuffler.Shuffle(order)

		for _, selectionID := range order[:byes] {
			bye := models.NewByeMatch(run.ID, roundSize, selectionID)
			if _, err := bye.SaveMatch(tx); err != nil {
				return err
			}
		}

		live := models.NewLiveMatch(run.ID, roundSize, order[byes], order[byes+1])
		if _, err := live.SaveMatch(tx); err != nil {
			return err
		}
		if err := live.LoadSelections(tx); err != nil {
			return err
		}

		if err := catalog.IncrementPlays(pool.ID); err != nil {
			return err
		}

		run.Pool = *pool
		result = &SeedResult{Run: &run, Match: &live, Ordinal: byes + 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[seedRun] run %d seeded over pool %d: %d entrants, round of %d", result.Run.ID, result.Run.PoolID, result.Run.EntrantCount, result.Run.RoundSize)
	return result, nil
}
