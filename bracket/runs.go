package bracket

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"Showdown/models"

	"gorm.io/gorm"
)

type ResumeResult struct {
	Run *models.Run
	// Match is the live match, nil once the run is completed.
	Match   *models.Match
	Ordinal int
}

type RunResultView struct {
	Run           *models.Run
	ResultImage   *string
	RequestedSize int
	RoundSize     int
	Pool          models.Pool
	Champion      *models.Selection
	RunnerUp      *models.Selection
}

// RunForResume loads a run for its owner together with the match waiting on
// a pick. Anonymous runs cannot be resumed.
func (e *Engine) RunForResume(ctx context.Context, runID, playerID uint) (*ResumeResult, error) {
	db := e.DB.WithContext(ctx)

	run, err := models.FindRunByID(db, runID)
	if err != nil {
		return nil, notFound(err, "run", runID)
	}
	if !run.OwnedBy(playerID) {
		return nil, fmt.Errorf("run %d for player %d: %w", runID, playerID, ErrNotFound)
	}

	result := &ResumeResult{Run: run}
	if run.IsCompleted() {
		return result, nil
	}

	match, err := models.FindOpenMatch(db, run.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run %d has no live match: %w", run.ID, ErrConsistency)
		}
		return nil, err
	}
	if err := match.LoadSelections(db); err != nil {
		return nil, err
	}
	count, err := models.CountRoundMatches(db, run.ID, match.RoundLabel)
	if err != nil {
		return nil, err
	}

	result.Match = match
	result.Ordinal = int(count)
	return result, nil
}

// RunResult is the public view of a run addressed by id and pool slug.
func (e *Engine) RunResult(ctx context.Context, runID uint, poolSlug string) (*RunResultView, error) {
	db := e.DB.WithContext(ctx)

	run, err := models.FindRunByID(db, runID)
	if err != nil {
		return nil, notFound(err, "run", runID)
	}
	if run.Pool.Slug != strings.TrimSpace(poolSlug) {
		return nil, fmt.Errorf("run %d under pool %q: %w", runID, poolSlug, ErrNotFound)
	}

	view := &RunResultView{
		Run:           run,
		ResultImage:   run.ResultImage,
		RequestedSize: run.RequestedSize,
		RoundSize:     run.RoundSize,
		Pool:          run.Pool,
	}
	if !run.IsCompleted() {
		return view, nil
	}

	final, err := models.FindFinalMatch(db, run.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("completed run %d has no final: %w", run.ID, ErrConsistency)
		}
		return nil, err
	}
	if err := final.LoadSelections(db); err != nil {
		return nil, err
	}
	if final.Selection1ID == *final.WinnerID {
		view.Champion = &final.Selection1
		view.RunnerUp = final.Selection2
	} else {
		view.Champion = final.Selection2
		view.RunnerUp = &final.Selection1
	}
	return view, nil
}

// AttachResultArtifact stores the rendered result image URL on the run.
// Repeating the call with the same reference is a no-op.
func (e *Engine) AttachResultArtifact(ctx context.Context, runID uint, ref string) (*models.Run, error) {
	ref = strings.TrimSpace(ref)
	if !isAbsoluteHTTPURL(ref) {
		return nil, fmt.Errorf("%q: %w", ref, ErrInvalidArtifact)
	}

	db := e.DB.WithContext(ctx)
	if err := models.UpdateRunResultImage(db, runID, ref); err != nil {
		return nil, notFound(err, "run", runID)
	}
	run, err := models.FindRunByID(db, runID)
	if err != nil {
		return nil, notFound(err, "run", runID)
	}
	return run, nil
}

func (e *Engine) ListPlayerRuns(ctx context.Context, playerID uint, page, perPage int) ([]models.Run, int64, error) {
	return models.FindPlayerRuns(e.DB.WithContext(ctx), playerID, page, perPage)
}

func isAbsoluteHTTPURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
