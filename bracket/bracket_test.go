package bracket

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"Showdown/database"
	"Showdown/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// identityShuffler keeps the roster in ascending id order.
type identityShuffler struct{}

func (identityShuffler) Shuffle([]uint) {}

func newTestEngine(t *testing.T, shuffler Shuffler) *Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return NewEngine(db, shuffler)
}

func createPool(t *testing.T, db *gorm.DB, title string, size int) (*models.Pool, []uint) {
	t.Helper()
	pool := models.Pool{Title: title, OwnerID: 1}
	pool.Prepare()
	_, err := pool.SavePool(db)
	require.NoError(t, err)

	ids := make([]uint, 0, size)
	for i := 0; i < size; i++ {
		selection := models.Selection{PoolID: pool.ID, Name: fmt.Sprintf("%s %d", title, i+1)}
		selection.Prepare()
		_, err := selection.SaveSelection(db)
		require.NoError(t, err)
		ids = append(ids, selection.ID)
	}
	return &pool, ids
}

func selection(t *testing.T, db *gorm.DB, id uint) *models.Selection {
	t.Helper()
	s, err := models.FindSelectionByID(db, id)
	require.NoError(t, err)
	return s
}

func pick(t *testing.T, e *Engine, runID uint, match *models.Match, winner uint) *PickResult {
	t.Helper()
	result, err := e.SubmitPick(context.Background(), PickRequest{RunID: runID, MatchID: match.ID, PickedSelectionID: winner})
	require.NoError(t, err)
	return result
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestPowerOfTwoHelpers(t *testing.T) {
	assert.True(t, IsPowerOfTwo(1))
	assert.True(t, IsPowerOfTwo(8))
	assert.False(t, IsPowerOfTwo(0))
	assert.False(t, IsPowerOfTwo(6))
	assert.False(t, IsPowerOfTwo(-4))

	assert.Equal(t, 2, NextPowerOfTwo(2))
	assert.Equal(t, 4, NextPowerOfTwo(3))
	assert.Equal(t, 8, NextPowerOfTwo(5))
	assert.Equal(t, 16, NextPowerOfTwo(16))
	assert.Equal(t, 32, NextPowerOfTwo(17))
}

func TestRandShufflerIsDeterministicPerSeed(t *testing.T) {
	a := []uint{1, 2, 3, 4, 5, 6, 7, 8}
	b := []uint{1, 2, 3, 4, 5, 6, 7, 8}
	NewShuffler(rand.NewSource(7)).Shuffle(a)
	NewShuffler(rand.NewSource(7)).Shuffle(b)
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []uint{1, 2, 3, 4, 5, 6, 7, 8}, a)
}

func TestSeedRunShapeForPoolSizes(t *testing.T) {
	for n := 2; n <= 17; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			e := newTestEngine(t, identityShuffler{})
			pool, ids := createPool(t, e.DB, "Pool", n)

			result, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 8})
			require.NoError(t, err)

			roundSize := NextPowerOfTwo(n)
			byes := roundSize - n
			assert.Equal(t, roundSize, result.Run.RoundSize)
			assert.Equal(t, 8, result.Run.RequestedSize)
			assert.Equal(t, n, result.Run.EntrantCount)
			assert.Equal(t, ids, []uint(result.Run.Entrants))
			assert.Equal(t, models.RunStatusInProgress, result.Run.Status)
			assert.Equal(t, byes+1, result.Ordinal)

			matches, err := models.FindRunMatches(e.DB, result.Run.ID)
			require.NoError(t, err)
			require.Len(t, matches, byes+1)

			byeCount := 0
			for _, m := range matches {
				assert.Equal(t, roundSize, m.RoundLabel)
				if m.IsBye() {
					byeCount++
					require.NotNil(t, m.WinnerID)
					assert.Equal(t, m.Selection1ID, *m.WinnerID)
				} else {
					assert.Nil(t, m.WinnerID)
					assert.Equal(t, result.Match.ID, m.ID)
				}
			}
			assert.Equal(t, byes, byeCount)

			require.NotNil(t, result.Match.Selection2)
			assert.Equal(t, ids[byes], result.Match.Selection1.ID)
			assert.Equal(t, ids[byes+1], result.Match.Selection2.ID)

			for _, id := range ids {
				s := selection(t, e.DB, id)
				assert.Zero(t, s.Wins+s.Losses+s.FinalWins+s.FinalLosses)
			}

			stored, err := models.FindPoolByID(e.DB, pool.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, stored.Plays)
		})
	}
}

func TestSeedRunRejectsSmallPools(t *testing.T) {
	for _, n := range []int{0, 1} {
		e := newTestEngine(t, identityShuffler{})
		pool, _ := createPool(t, e.DB, "Tiny", n)

		_, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 4})
		assert.ErrorIs(t, err, ErrInsufficientCandidates)
		assert.Zero(t, countRows(t, e.DB, &models.Run{}))
		assert.Zero(t, countRows(t, e.DB, &models.Match{}))
	}
}

func TestSeedRunSkipsDeletedSelections(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, ids := createPool(t, e.DB, "Films", 3)
	require.NoError(t, e.DB.Delete(&models.Selection{}, ids[0]).Error)

	result, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Run.RoundSize)
	assert.Equal(t, []uint{ids[1], ids[2]}, []uint(result.Run.Entrants))
	assert.Equal(t, 1, result.Ordinal)

	require.NoError(t, e.DB.Delete(&models.Selection{}, ids[1]).Error)
	_, err = e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 4})
	assert.ErrorIs(t, err, ErrInsufficientCandidates)
}

func TestSeedRunValidatesRequest(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, _ := createPool(t, e.DB, "Songs", 4)

	for _, size := range []int{0, 1, 3, 6, -8} {
		_, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: size})
		assert.ErrorIs(t, err, ErrInvalidBracketSize, "size %d", size)
	}

	_, err := e.SeedRun(context.Background(), SeedRequest{PoolID: 999, RequestedSize: 4})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, e.DB.Model(pool).Update("visibility", models.PoolVisibilityClosed).Error)
	_, err = e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 4})
	assert.ErrorIs(t, err, ErrPoolNotPlayable)
	assert.Zero(t, countRows(t, e.DB, &models.Run{}))
}

type failingPlaysCatalog struct {
	*models.PoolCatalog
}

func (failingPlaysCatalog) IncrementPlays(uint) error {
	return errors.New("counter unavailable")
}

func TestSeedRunRollsBackOnCatalogFailure(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	e.CatalogFor = func(tx *gorm.DB) Catalog {
		return failingPlaysCatalog{models.NewPoolCatalog(tx)}
	}
	pool, _ := createPool(t, e.DB, "Games", 5)

	_, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 8})
	assert.Error(t, err)
	assert.Zero(t, countRows(t, e.DB, &models.Run{}))
	assert.Zero(t, countRows(t, e.DB, &models.Match{}))
}

func TestFiveSelectionsInRoundOfEight(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, ids := createPool(t, e.DB, "Five", 5)
	s1, s2, s3, s4, s5 := ids[0], ids[1], ids[2], ids[3], ids[4]

	seeded, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 8})
	require.NoError(t, err)
	runID := seeded.Run.ID
	assert.Equal(t, 8, seeded.Run.RoundSize)
	assert.Equal(t, 4, seeded.Ordinal)
	assert.Equal(t, s4, seeded.Match.Selection1ID)
	assert.Equal(t, s5, *seeded.Match.Selection2ID)

	// 4 matches at label 8 closes the round
	r := pick(t, e, runID, seeded.Match, s5)
	require.NotNil(t, r.NextMatch)
	assert.Equal(t, 4, r.NextMatch.RoundLabel)
	assert.Equal(t, 1, r.Ordinal)
	assert.Equal(t, s1, r.NextMatch.Selection1ID)
	assert.Equal(t, s2, *r.NextMatch.Selection2ID)

	r = pick(t, e, runID, r.NextMatch, s1)
	require.NotNil(t, r.NextMatch)
	assert.Equal(t, 4, r.NextMatch.RoundLabel)
	assert.Equal(t, 2, r.Ordinal)
	assert.Equal(t, s3, r.NextMatch.Selection1ID)
	assert.Equal(t, s5, *r.NextMatch.Selection2ID)

	r = pick(t, e, runID, r.NextMatch, s3)
	require.NotNil(t, r.NextMatch)
	assert.Equal(t, 2, r.NextMatch.RoundLabel)
	assert.Equal(t, 1, r.Ordinal)
	assert.Equal(t, s1, r.NextMatch.Selection1ID)
	assert.Equal(t, s3, *r.NextMatch.Selection2ID)
	assert.False(t, r.Completed)

	final := pick(t, e, runID, r.NextMatch, s3)
	assert.True(t, final.Completed)
	assert.Nil(t, final.NextMatch)
	assert.Zero(t, final.Ordinal)
	assert.Equal(t, models.RunStatusCompleted, final.Run.Status)
	assert.NotNil(t, final.Run.CompletedAt)

	expect := map[uint]models.StatsDelta{
		s1: {Wins: 1, Losses: 1, FinalLosses: 1},
		s2: {Losses: 1},
		s3: {Wins: 2, FinalWins: 1},
		s4: {Losses: 1},
		s5: {Wins: 1, Losses: 1},
	}
	for id, want := range expect {
		got := selection(t, e.DB, id)
		assert.Equal(t, want, models.StatsDelta{Wins: got.Wins, Losses: got.Losses, FinalWins: got.FinalWins, FinalLosses: got.FinalLosses}, "selection %d", id)
	}

	stored, err := models.FindPoolByID(e.DB, pool.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Plays)
	assert.Equal(t, 1, stored.CompletedPlays)

	_, err = e.SubmitPick(context.Background(), PickRequest{RunID: runID, MatchID: final.PreviousMatch.ID, PickedSelectionID: s1})
	assert.ErrorIs(t, err, ErrInvalidPick)
}

func TestTwoSelectionRunCompletesOnFirstPick(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, ids := createPool(t, e.DB, "Pair", 2)

	seeded, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, seeded.Run.RoundSize)
	assert.Equal(t, 1, seeded.Ordinal)
	assert.Equal(t, int64(1), countRows(t, e.DB, &models.Match{}))

	result := pick(t, e, seeded.Run.ID, seeded.Match, ids[1])
	assert.True(t, result.Completed)
	assert.Nil(t, result.NextMatch)

	winner := selection(t, e.DB, ids[1])
	loser := selection(t, e.DB, ids[0])
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 1, winner.FinalWins)
	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, 1, loser.FinalLosses)
}

func TestSubmitPickTwiceFails(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, ids := createPool(t, e.DB, "Twice", 4)

	seeded, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 4})
	require.NoError(t, err)
	pick(t, e, seeded.Run.ID, seeded.Match, ids[0])

	_, err = e.SubmitPick(context.Background(), PickRequest{RunID: seeded.Run.ID, MatchID: seeded.Match.ID, PickedSelectionID: ids[1]})
	assert.ErrorIs(t, err, ErrInvalidPick)

	first := selection(t, e.DB, ids[0])
	second := selection(t, e.DB, ids[1])
	assert.Equal(t, 1, first.Wins)
	assert.Zero(t, first.Losses)
	assert.Zero(t, second.Wins)
	assert.Equal(t, 1, second.Losses)
	assert.Equal(t, int64(2), countRows(t, e.DB, &models.Match{}))
}

func TestSubmitPickRejectsBadRequests(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, ids := createPool(t, e.DB, "Three", 3)
	other, otherIDs := createPool(t, e.DB, "Other", 2)

	seeded, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 4})
	require.NoError(t, err)
	otherRun, err := e.SeedRun(context.Background(), SeedRequest{PoolID: other.ID, RequestedSize: 2})
	require.NoError(t, err)

	ctx := context.Background()

	_, err = e.SubmitPick(ctx, PickRequest{RunID: 999, MatchID: seeded.Match.ID, PickedSelectionID: ids[1]})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.SubmitPick(ctx, PickRequest{RunID: seeded.Run.ID, MatchID: 999, PickedSelectionID: ids[1]})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.SubmitPick(ctx, PickRequest{RunID: seeded.Run.ID, MatchID: otherRun.Match.ID, PickedSelectionID: otherIDs[0]})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.SubmitPick(ctx, PickRequest{RunID: seeded.Run.ID, MatchID: seeded.Match.ID, PickedSelectionID: ids[0]})
	assert.ErrorIs(t, err, ErrInvalidPick, "selection with the bye is not in the live match")

	matches, err := models.FindRunMatches(e.DB, seeded.Run.ID)
	require.NoError(t, err)
	var bye models.Match
	for _, m := range matches {
		if m.IsBye() {
			bye = m
		}
	}
	require.NotZero(t, bye.ID)
	_, err = e.SubmitPick(ctx, PickRequest{RunID: seeded.Run.ID, MatchID: bye.ID, PickedSelectionID: bye.Selection1ID})
	assert.ErrorIs(t, err, ErrInvalidPick)

	for _, id := range ids {
		s := selection(t, e.DB, id)
		assert.Zero(t, s.Wins+s.Losses)
	}
}

func TestSubmitPickConsistencyViolationRollsBack(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, ids := createPool(t, e.DB, "Broken", 4)

	seeded, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 4})
	require.NoError(t, err)

	// drop one entrant from the snapshot so the round cannot be filled
	require.NoError(t, e.DB.Model(&models.Run{}).
		Where("id = ?", seeded.Run.ID).
		Update("entrants", datatypes.JSONSlice[uint]{ids[0], ids[1], ids[2]}).Error)

	_, err = e.SubmitPick(context.Background(), PickRequest{RunID: seeded.Run.ID, MatchID: seeded.Match.ID, PickedSelectionID: ids[0]})
	assert.ErrorIs(t, err, ErrConsistency)
	assert.ErrorIs(t, err, ErrInsufficientCandidates)

	match, err := models.FindMatchByID(e.DB, seeded.Match.ID)
	require.NoError(t, err)
	assert.Nil(t, match.WinnerID)
	assert.Zero(t, selection(t, e.DB, ids[0]).Wins)
	assert.Zero(t, selection(t, e.DB, ids[1]).Losses)
}

func TestPlayThroughProperties(t *testing.T) {
	for n := 2; n <= 17; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			e := newTestEngine(t, NewShuffler(rand.NewSource(int64(n))))
			pool, ids := createPool(t, e.DB, "Play", n)

			seeded, err := e.SeedRun(context.Background(), SeedRequest{PoolID: pool.ID, RequestedSize: 16})
			require.NoError(t, err)

			labels := []int{seeded.Match.RoundLabel}
			played := 0
			match := seeded.Match
			completions := 0
			for match != nil {
				result := pick(t, e, seeded.Run.ID, match, match.Selection1ID)
				played++
				if result.Completed {
					completions++
					assert.Equal(t, 2, match.RoundLabel)
				}
				if result.NextMatch != nil {
					if last := labels[len(labels)-1]; result.NextMatch.RoundLabel != last {
						assert.Equal(t, last/2, result.NextMatch.RoundLabel)
						labels = append(labels, result.NextMatch.RoundLabel)
					}
				}
				match = result.NextMatch
			}

			assert.Equal(t, 1, completions)
			assert.Equal(t, n-1, played)
			assert.Equal(t, 2, labels[len(labels)-1])
			assert.Equal(t, NextPowerOfTwo(n), labels[0])

			wins, losses, finalWins, finalLosses := 0, 0, 0, 0
			for _, id := range ids {
				s := selection(t, e.DB, id)
				wins += s.Wins
				losses += s.Losses
				finalWins += s.FinalWins
				finalLosses += s.FinalLosses
			}
			assert.Equal(t, n-1, wins)
			assert.Equal(t, n-1, losses)
			assert.Equal(t, 1, finalWins)
			assert.Equal(t, 1, finalLosses)

			run, err := models.FindRunByID(e.DB, seeded.Run.ID)
			require.NoError(t, err)
			assert.True(t, run.IsCompleted())
		})
	}
}

func TestRunForResume(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, ids := createPool(t, e.DB, "Resume", 3)
	player := uint(77)
	ctx := context.Background()

	seeded, err := e.SeedRun(ctx, SeedRequest{PoolID: pool.ID, RequestedSize: 4, PlayerID: &player})
	require.NoError(t, err)

	resumed, err := e.RunForResume(ctx, seeded.Run.ID, player)
	require.NoError(t, err)
	require.NotNil(t, resumed.Match)
	assert.Equal(t, seeded.Match.ID, resumed.Match.ID)
	assert.Equal(t, 2, resumed.Ordinal)
	require.NotNil(t, resumed.Match.Selection2)
	assert.Equal(t, ids[2], resumed.Match.Selection2.ID)

	_, err = e.RunForResume(ctx, seeded.Run.ID, player+1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.RunForResume(ctx, 999, player)
	assert.ErrorIs(t, err, ErrNotFound)

	anon, err := e.SeedRun(ctx, SeedRequest{PoolID: pool.ID, RequestedSize: 4})
	require.NoError(t, err)
	_, err = e.RunForResume(ctx, anon.Run.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	next := pick(t, e, seeded.Run.ID, seeded.Match, ids[1])
	resumed, err = e.RunForResume(ctx, seeded.Run.ID, player)
	require.NoError(t, err)
	assert.Equal(t, next.NextMatch.ID, resumed.Match.ID)
	assert.Equal(t, 1, resumed.Ordinal)

	pick(t, e, seeded.Run.ID, next.NextMatch, ids[1])
	resumed, err = e.RunForResume(ctx, seeded.Run.ID, player)
	require.NoError(t, err)
	assert.Nil(t, resumed.Match)
	assert.True(t, resumed.Run.IsCompleted())
}

func TestRunResult(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, ids := createPool(t, e.DB, "Result", 2)
	ctx := context.Background()

	seeded, err := e.SeedRun(ctx, SeedRequest{PoolID: pool.ID, RequestedSize: 8})
	require.NoError(t, err)

	view, err := e.RunResult(ctx, seeded.Run.ID, pool.Slug)
	require.NoError(t, err)
	assert.Nil(t, view.Champion)
	assert.Equal(t, 8, view.RequestedSize)
	assert.Equal(t, 2, view.RoundSize)
	assert.Equal(t, pool.Slug, view.Pool.Slug)

	_, err = e.RunResult(ctx, seeded.Run.ID, "some-other-pool")
	assert.ErrorIs(t, err, ErrNotFound)

	pick(t, e, seeded.Run.ID, seeded.Match, ids[1])
	view, err = e.RunResult(ctx, seeded.Run.ID, pool.Slug)
	require.NoError(t, err)
	require.NotNil(t, view.Champion)
	require.NotNil(t, view.RunnerUp)
	assert.Equal(t, ids[1], view.Champion.ID)
	assert.Equal(t, ids[0], view.RunnerUp.ID)
}

func TestAttachResultArtifact(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, _ := createPool(t, e.DB, "Artifact", 2)
	ctx := context.Background()

	seeded, err := e.SeedRun(ctx, SeedRequest{PoolID: pool.ID, RequestedSize: 2})
	require.NoError(t, err)

	ref := "https://cdn.example/results/1.jpg"
	run, err := e.AttachResultArtifact(ctx, seeded.Run.ID, ref)
	require.NoError(t, err)
	require.NotNil(t, run.ResultImage)
	assert.Equal(t, ref, *run.ResultImage)

	run, err = e.AttachResultArtifact(ctx, seeded.Run.ID, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, *run.ResultImage)

	for _, bad := range []string{"", "results/1.jpg", "ftp://cdn.example/1.jpg", "https://"} {
		_, err := e.AttachResultArtifact(ctx, seeded.Run.ID, bad)
		assert.ErrorIs(t, err, ErrInvalidArtifact, "ref %q", bad)
	}

	_, err = e.AttachResultArtifact(ctx, 999, ref)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPlayerRuns(t *testing.T) {
	e := newTestEngine(t, identityShuffler{})
	pool, _ := createPool(t, e.DB, "History", 4)
	ctx := context.Background()
	player := uint(5)

	for i := 0; i < 3; i++ {
		_, err := e.SeedRun(ctx, SeedRequest{PoolID: pool.ID, RequestedSize: 4, PlayerID: &player})
		require.NoError(t, err)
	}
	_, err := e.SeedRun(ctx, SeedRequest{PoolID: pool.ID, RequestedSize: 4})
	require.NoError(t, err)

	runs, total, err := e.ListPlayerRuns(ctx, player, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, runs, 2)
	assert.Greater(t, runs[0].ID, runs[1].ID)
	assert.Equal(t, pool.Slug, runs[0].Pool.Slug)

	runs, _, err = e.ListPlayerRuns(ctx, player, 2, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
