// Package bracket seeds single-elimination runs over a selection pool and
// resolves picks one live match at a time.
package bracket

import (
	"Showdown/models"

	"gorm.io/gorm"
)

// Catalog is the pool side of the engine: playability, the playable roster
// and the counters a run moves.
type Catalog interface {
	FindPool(poolID uint) (*models.Pool, error)
	PlayableSelectionIDs(poolID uint) ([]uint, error)
	IncrementPlays(poolID uint) error
	IncrementCompletedPlays(poolID uint) error
	ApplyStats(selectionID uint, delta models.StatsDelta) error
}

type Engine struct {
	DB       *gorm.DB
	Shuffler Shuffler

	// CatalogFor binds a Catalog to the running transaction.
	CatalogFor func(tx *gorm.DB) Catalog
}

func NewEngine(db *gorm.DB, shuffler Shuffler) *Engine {
	if shuffler == nil {
		shuffler = NewTimeSeededShuffler()
	}
	return &Engine{
		DB:       db,
		Shuffler: shuffler,
		CatalogFor: func(tx *gorm.DB) Catalog {
			return models.NewPoolCatalog(tx)
		},
	}
}

// pairFrom shuffles candidates and opens a live match between the first two.
func (e *Engine) pairFrom(tx *gorm.DB, runID uint, roundLabel int, candidates []uint) (*models.Match, error) {
	if len(candidates) < 2 {
		return nil, ErrConsistency
	}
	order := append([]uint(nil), candidates...)
	e.Shuffler.Shuffle(order)

	match := models.NewLiveMatch(runID, roundLabel, order[0], order[1])
	if _, err := match.SaveMatch(tx); err != nil {
		return nil, err
	}
	if err := match.LoadSelections(tx); err != nil {
		return nil, err
	}
	return &match, nil
}
