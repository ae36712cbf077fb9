package models

import "gorm.io/gorm"

// PoolCatalog serves pool and selection data to the bracket engine. Build one
// per transaction so every read and counter write joins it.
type PoolCatalog struct {
	DB *gorm.DB
}

func NewPoolCatalog(db *gorm.DB) *PoolCatalog {
	return &PoolCatalog{DB: db}
}

func (c *PoolCatalog) FindPool(poolID uint) (*Pool, error) {
	return FindPoolByID(c.DB, poolID)
}

func (c *PoolCatalog) PlayableSelectionIDs(poolID uint) ([]uint, error) {
	return FindPlayableSelectionIDs(c.DB, poolID)
}

func (c *PoolCatalog) IncrementPlays(poolID uint) error {
	return IncrementPoolPlays(c.DB, poolID)
}

func (c *PoolCatalog) IncrementCompletedPlays(poolID uint) error {
	return IncrementPoolCompletedPlays(c.DB, poolID)
}

func (c *PoolCatalog) ApplyStats(selectionID uint, delta StatsDelta) error {
	return ApplySelectionStats(c.DB, selectionID, delta)
}
