package engine

import (
	"math/rand"
	"sync"
	"time"
)

// Shuffler produces presentation orders. The signature matches rand.Shuffle.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type randomShuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomShuffler returns a Shuffler seeded from the wall clock.
func NewRandomShuffler() Shuffler {
	return &randomShuffler{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *randomShuffler) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}

func shuffled(sh Shuffler, values []string) []string {
	out := append([]string(nil), values...)
	sh.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
