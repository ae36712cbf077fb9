package controllers

import (
	"errors"
	"net/http"

	"Showdown/cache"
	"Showdown/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetPoolLeaderboard godoc
// @Summary      Pool leaderboard
// @Description  Selections ranked by champion ratio, then overall win ratio
// @Tags         pools
// @Produce      json
// @Param        slug      path      string  true   "Pool slug"
// @Param        page      query     int     false  "Page"
// @Param        per_page  query     int     false  "Page size"
// @Success      200       {object}  LeaderboardEnvelope
// @Failure      404       {object}  ErrorResponse
// @Router       /pools/{slug}/leaderboard [get]
func (s *Server) GetPoolLeaderboard(c *gin.Context) {
	pool, err := models.FindPoolBySlug(s.DB, c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pool"})
		return
	}

	page, perPage := parsePagination(c, 20)
	ctx := c.Request.Context()
	key := leaderboardCacheKey(pool.ID, page, perPage)

	var cached LeaderboardDTO
	if hit, _ := cache.GetJSON(ctx, key, &cached); hit {
		c.JSON(http.StatusOK, gin.H{"response": cached})
		return
	}

	rows, total, err := models.RankSelections(s.DB, pool.ID, page, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}

	entries := make([]LeaderboardEntryDTO, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rankedSelectionToDTO(row))
	}
	dto := LeaderboardDTO{
		Pool:       poolToSummaryDTO(pool),
		Selections: entries,
		Pagination: paginationDTO(page, perPage, total),
	}
	_ = cache.SetJSON(ctx, key, dto, leaderboardTTL)

	c.JSON(http.StatusOK, gin.H{"response": dto})
}
