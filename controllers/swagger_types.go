package controllers

// RunCreateRequest starts a run over a pool.
type RunCreateRequest struct {
	PoolID   uint `json:"pool_id" binding:"required"`
	RoundsOf int  `json:"rounds_of" binding:"required"`
}

type PickRequest struct {
	MatchID           uint `json:"match_id" binding:"required"`
	PickedSelectionID uint `json:"picked_selection_id" binding:"required"`
}

type ResultImageRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RunStateEnvelope struct {
	Response RunStateDTO `json:"response"`
}

type PickResultEnvelope struct {
	Response PickResultDTO `json:"response"`
}

type RunResultEnvelope struct {
	Response RunResultDTO `json:"response"`
}

type RunEnvelope struct {
	Response RunDTO `json:"response"`
}

type RunListEnvelope struct {
	Response RunListDTO `json:"response"`
}

type LeaderboardEnvelope struct {
	Response LeaderboardDTO `json:"response"`
}
