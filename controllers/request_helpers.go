package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"Showdown/bracket"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

const maxPerPage = 100

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads ?page= and ?per_page=, falling back on bad input.
func parsePagination(c *gin.Context, defaultPerPage int) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if err != nil || perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// engineErrorStatus maps bracket errors to a status and a user-facing message.
func engineErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, bracket.ErrConsistency):
		return http.StatusInternalServerError, "Bracket state is inconsistent"
	case errors.Is(err, bracket.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, bracket.ErrInvalidPick):
		return http.StatusConflict, "This pick was already made or is not part of the match"
	case errors.Is(err, bracket.ErrInsufficientCandidates):
		return http.StatusUnprocessableEntity, "Pool needs at least two selections to play"
	case errors.Is(err, bracket.ErrPoolNotPlayable):
		return http.StatusForbidden, "Pool is closed to play"
	case errors.Is(err, bracket.ErrInvalidBracketSize):
		return http.StatusBadRequest, "rounds_of must be a power of two"
	case errors.Is(err, bracket.ErrInvalidArtifact):
		return http.StatusBadRequest, "image_url must be an absolute http(s) url"
	}
	return http.StatusInternalServerError, "Something went wrong"
}

func respondEngineError(c *gin.Context, op string, err error) {
	status, message := engineErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[%s] %v", op, err)
		sentry.CaptureException(err)
	}
	c.JSON(status, gin.H{"error": message})
}
