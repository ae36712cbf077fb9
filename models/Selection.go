package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Selection struct {
	ID          uint   `gorm:"primary_key;autoIncrement" json:"id"`
	Pool        Pool   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PoolID      uint   `gorm:"not null;index" json:"pool_id"`
	Name        string `gorm:"size:255;index" json:"name"`
	ResourceURL string `gorm:"size:2048" json:"resource_url"`

	Wins        int `gorm:"not null;default:0" json:"wins"`
	Losses      int `gorm:"not null;default:0" json:"losses"`
	FinalWins   int `gorm:"not null;default:0;index" json:"final_wins"`
	FinalLosses int `gorm:"not null;default:0" json:"final_losses"`

	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// StatsDelta holds relative counter changes; zero fields are left untouched.
type StatsDelta struct {
	Wins        int
	Losses      int
	FinalWins   int
	FinalLosses int
}

func (d StatsDelta) columns() map[string]interface{} {
	updates := make(map[string]interface{}, 4)
	if d.Wins != 0 {
		updates["wins"] = gorm.Expr("wins + ?", d.Wins)
	}
	if d.Losses != 0 {
		updates["losses"] = gorm.Expr("losses + ?", d.Losses)
	}
	if d.FinalWins != 0 {
		updates["final_wins"] = gorm.Expr("final_wins + ?", d.FinalWins)
	}
	if d.FinalLosses != 0 {
		updates["final_losses"] = gorm.Expr("final_losses + ?", d.FinalLosses)
	}
	return updates
}

// RankedSelection is a leaderboard row.
type RankedSelection struct {
	Selection
	FinalWinRatio float64 `json:"final_win_ratio"`
	WinRatio      float64 `json:"win_ratio"`
	Ranking       int     `json:"ranking"`
}

func (s *Selection) Prepare() {
	s.Name = html.EscapeString(strings.TrimSpace(s.Name))
	s.ResourceURL = strings.TrimSpace(s.ResourceURL)
	s.Pool = Pool{}
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
}

func (s *Selection) Validate() map[string]string {
	errorsMap := make(map[string]string)
	if s.Name == "" {
		errorsMap["Required_name"] = errors.New("required name").Error()
	}
	if s.PoolID == 0 {
		errorsMap["Required_pool"] = errors.New("required pool").Error()
	}
	return errorsMap
}

func (s *Selection) SaveSelection(db *gorm.DB) (*Selection, error) {
	if err := db.Omit("Pool").Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// FindPlayableSelectionIDs lists the non-deleted selections of a pool in id order.
func FindPlayableSelectionIDs(db *gorm.DB, poolID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&Selection{}).
		Where("pool_id = ?", poolID).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FindSelectionByID includes soft-deleted rows so finished runs keep rendering.
func FindSelectionByID(db *gorm.DB, id uint) (*Selection, error) {
	var selection Selection
	if err := db.Unscoped().Where("id = ?", id).First(&selection).Error; err != nil {
		return nil, err
	}
	return &selection, nil
}

// ApplySelectionStats adds delta to the counters in a single UPDATE so
// concurrent picks never overwrite each other.
func ApplySelectionStats(db *gorm.DB, selectionID uint, delta StatsDelta) error {
	updates := delta.columns()
	if len(updates) == 0 {
		return nil
	}
	result := db.Unscoped().Model(&Selection{}).
		Where("id = ?", selectionID).
		UpdateColumns(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

const (
	finalWinRatioExpr = "CASE WHEN (final_wins + final_losses) = 0 THEN 0 ELSE final_wins * 1.0 / (final_wins + final_losses) END"
	winRatioExpr      = "CASE WHEN (wins + losses) = 0 THEN 0 ELSE wins * 1.0 / (wins + losses) END"
)

// RankSelections pages through a pool's selections ordered by champion
// ratio, then overall ratio.
func RankSelections(db *gorm.DB, poolID uint, page, perPage int) ([]RankedSelection, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	var total int64
	if err := db.Model(&Selection{}).Where("pool_id = ?", poolID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var selections []Selection
	err := db.Where("pool_id = ?", poolID).
		Order(finalWinRatioExpr + " DESC").
		Order(winRatioExpr + " DESC").
		Order("id ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&selections).Error
	if err != nil {
		return nil, 0, err
	}

	rows := make([]RankedSelection, 0, len(selections))
	for i, selection := range selections {
		rows = append(rows, RankedSelection{
			Selection:     selection,
			FinalWinRatio: ratio(selection.FinalWins, selection.FinalLosses),
			WinRatio:      ratio(selection.Wins, selection.Losses),
			Ranking:       (page-1)*perPage + i + 1,
		})
	}
	return rows, total, nil
}

func ratio(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses)
}
