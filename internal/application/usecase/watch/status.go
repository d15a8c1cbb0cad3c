package watch

import (
	"strings"
	"sync"
)

// Tracker records which symbols the stream has accepted or rejected.
// Accepted is sticky: once a symbol is accepted it stays accepted, even if a
// later acknowledgement rejects it. A price tick observed for a symbol also
// forces it accepted (the stream is evidently serving it).
type Tracker struct {
	mu       sync.Mutex
	accepted map[string]struct{}
	rejected map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		accepted: make(map[string]struct{}),
		rejected: make(map[string]struct{}),
	}
}

// RecordAck folds one subscribe acknowledgement into the tracker.
func (t *Tracker) RecordAck(accepted, rejected []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sym := range accepted {
		u := strings.ToUpper(strings.TrimSpace(sym))
		if u == "" {
			continue
		}
		t.accepted[u] = struct{}{}
		delete(t.rejected, u)
	}
	for _, sym := range rejected {
		u := strings.ToUpper(strings.TrimSpace(sym))
		if u == "" {
			continue
		}
		if _, ok := t.accepted[u]; ok {
			continue
		}
		t.rejected[u] = struct{}{}
	}
}

// MarkAccepted records a symbol as accepted after a tick was observed for it.
func (t *Tracker) MarkAccepted(symbol string) {
	u := strings.ToUpper(strings.TrimSpace(symbol))
	if u == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accepted[u] = struct{}{}
	delete(t.rejected, u)
}

// Accepted reports whether the stream has accepted the symbol.
func (t *Tracker) Accepted(symbol string) bool {
	u := strings.ToUpper(strings.TrimSpace(symbol))
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.accepted[u]
	return ok
}

// NeedingFallback returns the configured symbols that need a fallback fetch:
// every rejected symbol, plus every never-acknowledged symbol that has no
// data yet. A symbol leaves this set only by becoming accepted.
func (t *Tracker) NeedingFallback(configured []string, hasData func(symbol string) bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for _, sym := range configured {
		u := strings.ToUpper(strings.TrimSpace(sym))
		if u == "" {
			continue
		}
		if _, ok := t.accepted[u]; ok {
			continue
		}
		if _, ok := t.rejected[u]; ok {
			out = append(out, u)
			continue
		}
		if hasData == nil || !hasData(u) {
			out = append(out, u)
		}
	}
	return out
}
