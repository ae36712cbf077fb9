package controllers

import (
	"bytes"
	"errors"
	"log"
	"net/http"

	"Showdown/bracket"
	"Showdown/cache"
	"Showdown/metrics"
	"Showdown/models"
	"Showdown/storage"
	"Showdown/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxResultImageBytes = 10 << 20

// CreateRun godoc
// @Summary      Start a run
// @Description  Seed a bracket over a pool and return the first live match
// @Tags         runs
// @Accept       json
// @Produce      json
// @Param        run  body      RunCreateRequest  true  "Run payload"
// @Success      201  {object}  RunStateEnvelope
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /runs [post]
func (s *Server) CreateRun(c *gin.Context) {
	var input RunCreateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := bracket.SeedRequest{PoolID: input.PoolID, RequestedSize: input.RoundsOf}
	if userID, ok := httpctx.CurrentUserID(c); ok {
		req.PlayerID = &userID
	}

	result, err := s.Engine.SeedRun(c.Request.Context(), req)
	if err != nil {
		respondEngineError(c, "createRun", err)
		return
	}
	metrics.RunsSeeded.Inc()

	c.JSON(http.StatusCreated, gin.H{"response": seedResultToDTO(result)})
}

// SubmitPick godoc
// @Summary      Pick a winner
// @Description  Record the winner of the live match and get the next one
// @Tags         runs
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Run ID"
// @Param        pick  body      PickRequest  true  "Pick payload"
// @Success      200   {object}  PickResultEnvelope
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /runs/{id}/picks [post]
func (s *Server) SubmitPick(c *gin.Context) {
	runID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	var input PickRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.Engine.SubmitPick(c.Request.Context(), bracket.PickRequest{
		RunID:             runID,
		MatchID:           input.MatchID,
		PickedSelectionID: input.PickedSelectionID,
	})
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errors.Is(err, bracket.ErrInvalidPick) || errors.Is(err, bracket.ErrNotFound) {
			outcome = metrics.OutcomeRejected
		}
		metrics.PicksSubmitted.WithLabelValues(outcome).Inc()
		respondEngineError(c, "submitPick", err)
		return
	}

	if result.Completed {
		metrics.PicksSubmitted.WithLabelValues(metrics.OutcomeCompleted).Inc()
		metrics.RunsCompleted.Inc()
		invalidateLeaderboardCache(result.Run.PoolID)
		invalidateRunResultCache(result.Run.ID)
	} else {
		metrics.PicksSubmitted.WithLabelValues(metrics.OutcomeAdvanced).Inc()
	}

	c.JSON(http.StatusOK, gin.H{"response": pickResultToDTO(result)})
}

// GetRun godoc
// @Summary      Resume a run
// @Description  Get one of your runs with the match waiting on a pick
// @Tags         runs
// @Produce      json
// @Param        id   path      int  true  "Run ID"
// @Success      200  {object}  RunStateEnvelope
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /runs/{id} [get]
// @Security     BearerAuth
func (s *Server) GetRun(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	runID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	result, err := s.Engine.RunForResume(c.Request.Context(), runID, userID)
	if err != nil {
		respondEngineError(c, "getRun", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": resumeResultToDTO(result)})
}

// GetMyRuns godoc
// @Summary      List my runs
// @Tags         runs
// @Produce      json
// @Param        page      query     int  false  "Page"
// @Param        per_page  query     int  false  "Page size"
// @Success      200       {object}  RunListEnvelope
// @Failure      401       {object}  ErrorResponse
// @Router       /runs [get]
// @Security     BearerAuth
func (s *Server) GetMyRuns(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	page, perPage := parsePagination(c, 20)

	runs, total, err := s.Engine.ListPlayerRuns(c.Request.Context(), userID, page, perPage)
	if err != nil {
		respondEngineError(c, "getMyRuns", err)
		return
	}

	out := make([]RunDTO, 0, len(runs))
	for i := range runs {
		out = append(out, runToDTO(&runs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"response": RunListDTO{
		Runs:       out,
		Pagination: paginationDTO(page, perPage, total),
	}})
}

// GetRunResult godoc
// @Summary      Show a run result
// @Description  Public result of a run, addressed by run id and pool slug
// @Tags         runs
// @Produce      json
// @Param        id    path      int     true  "Run ID"
// @Param        slug  path      string  true  "Pool slug"
// @Success      200   {object}  RunResultEnvelope
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /runs/{id}/result/{slug} [get]
func (s *Server) GetRunResult(c *gin.Context) {
	runID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}
	poolSlug := c.Param("slug")
	ctx := c.Request.Context()

	key := runResultCacheKey(runID, poolSlug)
	var cached RunResultDTO
	if hit, _ := cache.GetJSON(ctx, key, &cached); hit {
		c.JSON(http.StatusOK, gin.H{"response": cached})
		return
	}

	view, err := s.Engine.RunResult(ctx, runID, poolSlug)
	if err != nil {
		respondEngineError(c, "getRunResult", err)
		return
	}

	dto := runResultToDTO(view)
	if view.Run.IsCompleted() {
		_ = cache.SetJSON(ctx, key, dto, runResultTTL)
	}
	c.JSON(http.StatusOK, gin.H{"response": dto})
}

// UpdateRunResultImage godoc
// @Summary      Attach a result image
// @Description  Store the URL of an already uploaded result image on the run
// @Tags         runs
// @Accept       json
// @Produce      json
// @Param        id     path      int                 true  "Run ID"
// @Param        image  body      ResultImageRequest  true  "Image URL"
// @Success      200    {object}  RunEnvelope
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Router       /runs/{id}/result-image [patch]
func (s *Server) UpdateRunResultImage(c *gin.Context) {
	runID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	var input ResultImageRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.attachResultImage(c, runID, input.ImageURL)
}

// UploadRunResultImage godoc
// @Summary      Upload a result image
// @Description  Normalize an image, store it in object storage and attach it to the run
// @Tags         runs
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      int   true  "Run ID"
// @Param        image  formData  file  true  "Result image"
// @Success      200    {object}  RunEnvelope
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Failure      503    {object}  ErrorResponse
// @Router       /runs/{id}/result-image [post]
func (s *Server) UploadRunResultImage(c *gin.Context) {
	if s.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}
	runID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	run, err := models.FindRunByID(s.DB, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxResultImageBytes)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read image"})
		return
	}
	defer file.Close()

	normalized, err := storage.NormalizeImage(file, storage.ResultImageMaxSide)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image"})
		return
	}

	key := storage.ResultImageKey(run.Pool.Slug, run.ID)
	uploaded, err := s.Uploader.Upload(c.Request.Context(), key, "image/jpeg", bytes.NewReader(normalized))
	if err != nil {
		log.Printf("[uploadRunResultImage] upload failed for run %d: %v", run.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store image"})
		return
	}

	s.attachResultImage(c, run.ID, uploaded.Location)
}

func (s *Server) attachResultImage(c *gin.Context, runID uint, ref string) {
	run, err := s.Engine.AttachResultArtifact(c.Request.Context(), runID, ref)
	if err != nil {
		respondEngineError(c, "attachResultImage", err)
		return
	}
	invalidateRunResultCache(run.ID)

	c.JSON(http.StatusOK, gin.H{"response": runToDTO(run)})
}
