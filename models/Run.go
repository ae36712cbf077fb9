package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"
)

// Run is one player's traversal of a bracket over a pool.
type Run struct {
	ID       uint  `gorm:"primary_key;autoIncrement" json:"id"`
	Pool     Pool  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"pool"`
	PoolID   uint  `gorm:"not null;index" json:"pool_id"`
	PlayerID *uint `gorm:"index:idx_runs_player_created,priority:1" json:"player_id"`

	RequestedSize int `gorm:"not null" json:"rounds_of"`
	RoundSize     int `gorm:"not null" json:"round_size"`
	EntrantCount  int `gorm:"not null" json:"entrant_count"`

	// Entrants is the roster snapshot taken at seeding, ascending ids.
	Entrants datatypes.JSONSlice[uint] `json:"-"`

	Status      string     `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
	ResultImage *string    `gorm:"size:2048" json:"result_image"`
	CompletedAt *time.Time `json:"completed_at"`

	Matches []Match `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE;" json:"-"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_runs_player_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (r *Run) Prepare() {
	r.Pool = Pool{}
	r.Matches = nil
	if r.Status == "" {
		r.Status = RunStatusInProgress
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()
}

func (r *Run) Validate() map[string]string {
	errorsMap := make(map[string]string)
	if r.PoolID == 0 {
		errorsMap["Required_pool"] = errors.New("required pool").Error()
	}
	if r.RoundSize < 2 {
		errorsMap["Invalid_round_size"] = errors.New("round size must be at least 2").Error()
	}
	if r.EntrantCount != len(r.Entrants) {
		errorsMap["Invalid_entrants"] = errors.New("entrant count does not match roster").Error()
	}
	return errorsMap
}

func (r *Run) IsCompleted() bool {
	return r.Status == RunStatusCompleted
}

// OwnedBy reports whether playerID started the run. Anonymous runs have no owner.
func (r *Run) OwnedBy(playerID uint) bool {
	return r.PlayerID != nil && playerID != 0 && *r.PlayerID == playerID
}

func (r *Run) SaveRun(db *gorm.DB) (*Run, error) {
	if err := db.Omit(clause.Associations).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

func FindRunByID(db *gorm.DB, id uint) (*Run, error) {
	var run Run
	err := db.
		Preload("Pool", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LockRunByID loads the run with a row lock held until the surrounding
// transaction ends. Dialects without row locks ignore the clause.
func LockRunByID(tx *gorm.DB, id uint) (*Run, error) {
	var run Run
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// MarkRunCompleted flips an in-progress run to completed. It returns false if
// the run was not in progress.
func MarkRunCompleted(db *gorm.DB, run *Run) (bool, error) {
	now := time.Now()
	result := db.Model(&Run{}).
		Where("id = ? AND status = ?", run.ID, RunStatusInProgress).
		Updates(map[string]interface{}{
			"status":       RunStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	run.Status = RunStatusCompleted
	run.CompletedAt = &now
	run.UpdatedAt = now
	return true, nil
}

func UpdateRunResultImage(db *gorm.DB, runID uint, imageURL string) error {
	result := db.Model(&Run{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{
			"result_image": imageURL,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindPlayerRuns pages through a player's runs, newest first.
func FindPlayerRuns(db *gorm.DB, playerID uint, page, perPage int) ([]Run, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	var total int64
	if err := db.Model(&Run{}).Where("player_id = ?", playerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	runs := []Run{}
	err := db.
		Preload("Pool", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("player_id = ?", playerID).
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func CountRunsByStatus(db *gorm.DB, status string) (int64, error) {
	var count int64
	err := db.Model(&Run{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
