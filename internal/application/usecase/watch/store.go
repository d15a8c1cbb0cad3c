package watch

import (
	"strings"
	"sync"
)

// PricePoint is one retained observation.
type PricePoint struct {
	Ts    float64 // unix seconds
	Price float64
}

// buffer is a fixed-capacity ring of points for one symbol.
type buffer struct {
	mu   sync.Mutex
	pts  []PricePoint
	head int
	size int
}

func (b *buffer) append(p PricePoint) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size < len(b.pts) {
		b.pts[(b.head+b.size)%len(b.pts)] = p
		b.size++
		return
	}
	// full: overwrite oldest
	b.pts[b.head] = p
	b.head = (b.head + 1) % len(b.pts)
}

func (b *buffer) snapshot() []PricePoint {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]PricePoint, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.pts[(b.head+i)%len(b.pts)]
	}
	return out
}

func (b *buffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Store holds a bounded rolling history per configured symbol. The symbol set
// is fixed at construction; appends for unknown symbols are dropped. Locking
// is per symbol so unrelated symbols never contend.
type Store struct {
	order   []string
	buffers map[string]*buffer
}

func NewStore(symbols []string, capacity int) *Store {
	if capacity <= 0 {
		capacity = 1
	}
	order := make([]string, 0, len(symbols))
	buffers := make(map[string]*buffer, len(symbols))
	for _, sym := range symbols {
		u := strings.ToUpper(strings.TrimSpace(sym))
		if u == "" {
			continue
		}
		if _, ok := buffers[u]; ok {
			continue
		}
		order = append(order, u)
		buffers[u] = &buffer{pts: make([]PricePoint, capacity)}
	}
	return &Store{order: order, buffers: buffers}
}

func (s *Store) Symbols() []string {
	return s.order
}

// Append records a point for symbol, evicting the oldest point at capacity.
func (s *Store) Append(symbol string, p PricePoint) {
	b := s.buffers[strings.ToUpper(strings.TrimSpace(symbol))]
	if b == nil {
		return
	}
	b.append(p)
}

// Snapshot returns a copy of the symbol's points in arrival order, safe to
// iterate while writers continue to append.
func (s *Store) Snapshot(symbol string) []PricePoint {
	b := s.buffers[strings.ToUpper(strings.TrimSpace(symbol))]
	if b == nil {
		return nil
	}
	return b.snapshot()
}

func (s *Store) Len(symbol string) int {
	b := s.buffers[strings.ToUpper(strings.TrimSpace(symbol))]
	if b == nil {
		return 0
	}
	return b.len()
}
