package bracket

import (
	"math/rand"
	"sync"
	"time"
)

// Shuffler permutes selection ids in place.
type Shuffler interface {
	Shuffle(ids []uint)
}

// RandShuffler is a Fisher-Yates shuffle over a seedable source. It is safe
// for concurrent use.
type RandShuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewShuffler(src rand.Source) *RandShuffler {
	return &RandShuffler{rng: rand.New(src)}
}

func NewTimeSeededShuffler() *RandShuffler {
	return NewShuffler(rand.NewSource(time.Now().UnixNano()))
}

func (s *RandShuffler) Shuffle(ids []uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(ids) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}
