package bracket

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidPick            = errors.New("invalid pick")
	ErrInsufficientCandidates = errors.New("insufficient candidates")
	ErrPoolNotPlayable        = errors.New("pool is not playable")
	ErrInvalidBracketSize     = errors.New("bracket size must be a power of two")
	ErrInvalidArtifact        = errors.New("result artifact must be an absolute http(s) url")
)

// ErrConsistency marks a run whose stored matches cannot produce the next
// pairing. It matches ErrInsufficientCandidates under errors.Is.
var ErrConsistency = fmt.Errorf("bracket consistency violation: %w", ErrInsufficientCandidates)

func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}
