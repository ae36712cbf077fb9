package controllers

import (
	"time"

	"Showdown/bracket"
	"Showdown/models"
)

func timePtrOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copy := *t
	return &copy
}

func selectionToDTO(s *models.Selection) SelectionDTO {
	return SelectionDTO{
		ID:          s.ID,
		Name:        s.Name,
		ResourceURL: s.ResourceURL,
		Wins:        s.Wins,
		Losses:      s.Losses,
		FinalWins:   s.FinalWins,
		FinalLosses: s.FinalLosses,
	}
}

func selectionPtrToDTO(s *models.Selection) *SelectionDTO {
	if s == nil {
		return nil
	}
	dto := selectionToDTO(s)
	return &dto
}

func poolToSummaryDTO(p *models.Pool) PoolSummaryDTO {
	return PoolSummaryDTO{
		ID:             p.ID,
		Slug:           p.Slug,
		Title:          p.Title,
		Description:    p.Description,
		Plays:          p.Plays,
		CompletedPlays: p.CompletedPlays,
	}
}

func matchToDTO(m *models.Match) MatchDTO {
	return MatchDTO{
		ID:         m.ID,
		RoundsOf:   m.RoundLabel,
		Selection1: selectionToDTO(&m.Selection1),
		Selection2: selectionPtrToDTO(m.Selection2),
		WinnerID:   m.WinnerID,
	}
}

func matchPtrToDTO(m *models.Match) *MatchDTO {
	if m == nil {
		return nil
	}
	dto := matchToDTO(m)
	return &dto
}

func runToDTO(r *models.Run) RunDTO {
	dto := RunDTO{
		ID:           r.ID,
		PoolID:       r.PoolID,
		PlayerID:     r.PlayerID,
		RoundsOf:     r.RequestedSize,
		RoundSize:    r.RoundSize,
		EntrantCount: r.EntrantCount,
		Status:       r.Status,
		ResultImage:  r.ResultImage,
		CompletedAt:  timePtrOrNil(r.CompletedAt),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Pool.ID != 0 {
		pool := poolToSummaryDTO(&r.Pool)
		dto.Pool = &pool
	}
	return dto
}

func seedResultToDTO(res *bracket.SeedResult) RunStateDTO {
	return RunStateDTO{
		Run:     runToDTO(res.Run),
		Match:   matchPtrToDTO(res.Match),
		Ordinal: res.Ordinal,
	}
}

func resumeResultToDTO(res *bracket.ResumeResult) RunStateDTO {
	return RunStateDTO{
		Run:     runToDTO(res.Run),
		Match:   matchPtrToDTO(res.Match),
		Ordinal: res.Ordinal,
	}
}

func pickResultToDTO(res *bracket.PickResult) PickResultDTO {
	return PickResultDTO{
		Run:           runToDTO(res.Run),
		PreviousMatch: matchToDTO(res.PreviousMatch),
		NextMatch:     matchPtrToDTO(res.NextMatch),
		Ordinal:       res.Ordinal,
		Completed:     res.Completed,
	}
}

func runResultToDTO(view *bracket.RunResultView) RunResultDTO {
	return RunResultDTO{
		Run:         runToDTO(view.Run),
		ResultImage: view.ResultImage,
		RoundsOf:    view.RequestedSize,
		RoundSize:   view.RoundSize,
		Pool:        poolToSummaryDTO(&view.Pool),
		Champion:    selectionPtrToDTO(view.Champion),
		RunnerUp:    selectionPtrToDTO(view.RunnerUp),
	}
}

func rankedSelectionToDTO(r models.RankedSelection) LeaderboardEntryDTO {
	return LeaderboardEntryDTO{
		SelectionDTO:  selectionToDTO(&r.Selection),
		FinalWinRatio: r.FinalWinRatio,
		WinRatio:      r.WinRatio,
		Ranking:       r.Ranking,
	}
}

func paginationDTO(page, perPage int, total int64) PaginationDTO {
	totalPages := int64(0)
	if perPage > 0 {
		totalPages = (total + int64(perPage) - 1) / int64(perPage)
	}
	return PaginationDTO{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
