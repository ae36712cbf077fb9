package models

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	PoolVisibilityPublic  = "public"
	PoolVisibilityPrivate = "private"
	PoolVisibilityClosed  = "closed"
)

// Pool is the named collection of selections a bracket is played over.
type Pool struct {
	ID          uint   `gorm:"primary_key;autoIncrement" json:"id"`
	Slug        string `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`
	Visibility  string `gorm:"size:20;not null;default:'public'" json:"visibility"`

	Plays          int `gorm:"not null;default:0" json:"plays"`
	CompletedPlays int `gorm:"not null;default:0" json:"completed_plays"`

	Selections []Selection `gorm:"foreignKey:PoolID" json:"-"`

	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Pool) Prepare() {
	p.Title = html.EscapeString(strings.TrimSpace(p.Title))
	p.Description = html.EscapeString(strings.TrimSpace(p.Description))
	p.Visibility = strings.ToLower(strings.TrimSpace(p.Visibility))
	if p.Visibility == "" {
		p.Visibility = PoolVisibilityPublic
	}
	if p.Slug == "" {
		p.Slug = slug.Make(html.UnescapeString(p.Title))
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
}

func (p *Pool) Validate() map[string]string {
	errorsMap := make(map[string]string)

	if p.Title == "" {
		errorsMap["Required_title"] = errors.New("required title").Error()
	}
	if p.Slug == "" {
		errorsMap["Required_slug"] = errors.New("required slug").Error()
	}
	switch p.Visibility {
	case PoolVisibilityPublic, PoolVisibilityPrivate, PoolVisibilityClosed:
	default:
		errorsMap["Invalid_visibility"] = fmt.Sprintf("invalid visibility %q", p.Visibility)
	}

	return errorsMap
}

// IsPlayable reports whether new runs may be started over the pool.
func (p *Pool) IsPlayable() bool {
	return p.Visibility != PoolVisibilityClosed
}

func (p *Pool) SavePool(db *gorm.DB) (*Pool, error) {
	if err := db.Omit("Selections").Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func FindPoolByID(db *gorm.DB, id uint) (*Pool, error) {
	var pool Pool
	if err := db.Where("id = ?", id).First(&pool).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

func FindPoolBySlug(db *gorm.DB, poolSlug string) (*Pool, error) {
	var pool Pool
	if err := db.Where("slug = ?", strings.TrimSpace(poolSlug)).First(&pool).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

// UniquePoolSlug builds "<title>-<owner>" and appends -2, -3, ... until the
// slug is unused, soft-deleted pools included.
func UniquePoolSlug(db *gorm.DB, title, ownerName string) (string, error) {
	base := slug.Make(title)
	if owner := slug.Make(ownerName); owner != "" {
		base = base + "-" + owner
	}
	if base == "" {
		base = "pool"
	}

	candidate := base
	for n := 2; ; n++ {
		var count int64
		if err := db.Unscoped().Model(&Pool{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func IncrementPoolPlays(db *gorm.DB, poolID uint) error {
	return db.Model(&Pool{}).
		Where("id = ?", poolID).
		UpdateColumn("plays", gorm.Expr("plays + ?", 1)).Error
}

func IncrementPoolCompletedPlays(db *gorm.DB, poolID uint) error {
	return db.Model(&Pool{}).
		Where("id = ?", poolID).
		UpdateColumn("completed_plays", gorm.Expr("completed_plays + ?", 1)).Error
}
