package controllers

import "time"

type SelectionDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	ResourceURL string `json:"resource_url"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	FinalWins   int    `json:"final_wins"`
	FinalLosses int    `json:"final_losses"`
}

type PoolSummaryDTO struct {
	ID             uint   `json:"id"`
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Plays          int    `json:"plays"`
	CompletedPlays int    `json:"completed_plays"`
}

type MatchDTO struct {
	ID         uint          `json:"id"`
	RoundsOf   int           `json:"rounds_of"`
	Selection1 SelectionDTO  `json:"selection1"`
	Selection2 *SelectionDTO `json:"selection2"`
	WinnerID   *uint         `json:"winner_id"`
}

type RunDTO struct {
	ID           uint            `json:"id"`
	PoolID       uint            `json:"pool_id"`
	PlayerID     *uint           `json:"player_id"`
	RoundsOf     int             `json:"rounds_of"`
	RoundSize    int             `json:"round_size"`
	EntrantCount int             `json:"entrant_count"`
	Status       string          `json:"status"`
	ResultImage  *string         `json:"result_image"`
	Pool         *PoolSummaryDTO `json:"pool,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RunStateDTO is a run with the match waiting on a pick.
type RunStateDTO struct {
	Run     RunDTO    `json:"run"`
	Match   *MatchDTO `json:"match"`
	Ordinal int       `json:"ordinal"`
}

type PickResultDTO struct {
	Run           RunDTO    `json:"run"`
	PreviousMatch MatchDTO  `json:"previous_match"`
	NextMatch     *MatchDTO `json:"next_match"`
	Ordinal       int       `json:"ordinal"`
	Completed     bool      `json:"completed"`
}

type RunResultDTO struct {
	Run         RunDTO         `json:"run"`
	ResultImage *string        `json:"result_image"`
	RoundsOf    int            `json:"rounds_of"`
	RoundSize   int            `json:"round_size"`
	Pool        PoolSummaryDTO `json:"pool"`
	Champion    *SelectionDTO  `json:"champion"`
	RunnerUp    *SelectionDTO  `json:"runner_up"`
}

type LeaderboardEntryDTO struct {
	SelectionDTO
	FinalWinRatio float64 `json:"final_win_ratio"`
	WinRatio      float64 `json:"win_ratio"`
	Ranking       int     `json:"ranking"`
}

type PaginationDTO struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

type LeaderboardDTO struct {
	Pool       PoolSummaryDTO        `json:"pool"`
	Selections []LeaderboardEntryDTO `json:"selections"`
	Pagination PaginationDTO         `json:"pagination"`
}

type RunListDTO struct {
	Runs       []RunDTO      `json:"runs"`
	Pagination PaginationDTO `json:"pagination"`
}
