package controllers

import (
	"context"
	"fmt"
	"time"

	"Showdown/cache"
)

const (
	leaderboardTTL = 10 * time.Minute
	runResultTTL   = 10 * time.Minute
)

func leaderboardCacheKey(poolID uint, page, perPage int) string {
	return fmt.Sprintf("leaderboard:%d:%d:%d", poolID, page, perPage)
}

func runResultCacheKey(runID uint, poolSlug string) string {
	return fmt.Sprintf("run_result:%d:%s", runID, poolSlug)
}

func invalidateLeaderboardCache(poolID uint) {
	if poolID == 0 {
		return
	}
	_ = cache.DeleteByPrefix(context.Background(), fmt.Sprintf("leaderboard:%d:", poolID))
}

func invalidateRunResultCache(runID uint) {
	if runID == 0 {
		return
	}
	_ = cache.DeleteByPrefix(context.Background(), fmt.Sprintf("run_result:%d:", runID))
}
