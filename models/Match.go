package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Match is one pairing inside a run. RoundLabel is the number of entrants the
// round started with. A nil Selection2ID marks a bye, resolved on creation.
type Match struct {
	ID         uint `gorm:"primary_key;autoIncrement" json:"id"`
	RunID      uint `gorm:"not null;index:idx_matches_run_round,priority:1" json:"run_id"`
	RoundLabel int  `gorm:"not null;index:idx_matches_run_round,priority:2" json:"rounds_of"`

	Selection1   Selection  `gorm:"foreignKey:Selection1ID" json:"selection1"`
	Selection1ID uint       `gorm:"not null" json:"selection1_id"`
	Selection2   *Selection `gorm:"foreignKey:Selection2ID" json:"selection2"`
	Selection2ID *uint      `json:"selection2_id"`
	WinnerID     *uint      `gorm:"index" json:"winner_id"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func NewByeMatch(runID uint, roundLabel int, selectionID uint) Match {
	winner := selectionID
	return Match{
		RunID:        runID,
		RoundLabel:   roundLabel,
		Selection1ID: selectionID,
		WinnerID:     &winner,
	}
}

func NewLiveMatch(runID uint, roundLabel int, first, second uint) Match {
	return Match{
		RunID:        runID,
		RoundLabel:   roundLabel,
		Selection1ID: first,
		Selection2ID: &second,
	}
}

func (m *Match) IsBye() bool {
	return m.Selection2ID == nil
}

func (m *Match) IsDecided() bool {
	return m.WinnerID != nil
}

// Opponent returns the other slot of a played match, or false if id is not in it.
func (m *Match) Opponent(id uint) (uint, bool) {
	if m.IsBye() {
		return 0, false
	}
	switch id {
	case m.Selection1ID:
		return *m.Selection2ID, true
	case *m.Selection2ID:
		return m.Selection1ID, true
	}
	return 0, false
}

func (m *Match) SaveMatch(db *gorm.DB) (*Match, error) {
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
	if err := db.Omit(clause.Associations).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// LoadSelections fills both slots, soft-deleted selections included.
func (m *Match) LoadSelections(db *gorm.DB) error {
	first, err := FindSelectionByID(db, m.Selection1ID)
	if err != nil {
		return err
	}
	m.Selection1 = *first
	m.Selection2 = nil
	if m.Selection2ID != nil {
		second, err := FindSelectionByID(db, *m.Selection2ID)
		if err != nil {
			return err
		}
		m.Selection2 = second
	}
	return nil
}

func FindMatchByID(db *gorm.DB, id uint) (*Match, error) {
	var match Match
	if err := db.Where("id = ?", id).First(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// SetMatchWinner writes the winner only while the match is undecided and
// reports how many rows changed; zero means another pick got there first.
func SetMatchWinner(db *gorm.DB, matchID, winnerID uint) (int64, error) {
	result := db.Model(&Match{}).
		Where("id = ? AND winner_id IS NULL", matchID).
		Updates(map[string]interface{}{
			"winner_id":  winnerID,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// CountRoundMatches counts byes, decided and live matches at a round label.
func CountRoundMatches(db *gorm.DB, runID uint, roundLabel int) (int64, error) {
	var count int64
	err := db.Model(&Match{}).
		Where("run_id = ? AND round_label = ?", runID, roundLabel).
		Count(&count).Error
	return count, err
}

// RoundSelectionIDs lists every selection already placed in a round.
func RoundSelectionIDs(db *gorm.DB, runID uint, roundLabel int) ([]uint, error) {
	var matches []Match
	err := db.Select("selection1_id", "selection2_id").
		Where("run_id = ? AND round_label = ?", runID, roundLabel).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(matches)*2)
	for _, m := range matches {
		ids = append(ids, m.Selection1ID)
		if m.Selection2ID != nil {
			ids = append(ids, *m.Selection2ID)
		}
	}
	return ids, nil
}

// RoundWinnerIDs lists the decided winners of a round in match order.
func RoundWinnerIDs(db *gorm.DB, runID uint, roundLabel int) ([]uint, error) {
	var ids []uint
	err := db.Model(&Match{}).
		Where("run_id = ? AND round_label = ? AND winner_id IS NOT NULL", runID, roundLabel).
		Order("id ASC").
		Pluck("winner_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FindOpenMatch returns the most recent undecided match of a run.
func FindOpenMatch(db *gorm.DB, runID uint) (*Match, error) {
	var match Match
	err := db.Where("run_id = ? AND winner_id IS NULL", runID).
		Order("id DESC").
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// FindFinalMatch returns the decided round-of-two match of a run.
func FindFinalMatch(db *gorm.DB, runID uint) (*Match, error) {
	var match Match
	err := db.Where("run_id = ? AND round_label = ? AND winner_id IS NOT NULL", runID, 2).
		Order("id DESC").
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func FindRunMatches(db *gorm.DB, runID uint) ([]Match, error) {
	matches := []Match{}
	err := db.Where("run_id = ?", runID).
		Order("round_label DESC").
		Order("id ASC").
		Find(&matches).Error
	return matches, err
}
