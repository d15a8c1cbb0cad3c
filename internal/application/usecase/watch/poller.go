package watch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"fxwatch/internal/application/port"
)

// Poller supplies price points for symbols the stream is not serving. One
// fetch at most per interval, shared across all symbols; fetch failures are
// logged and retried on a later window.
type Poller struct {
	src      port.QuoteSource
	store    *Store
	interval time.Duration
	timeout  time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewPoller(src port.QuoteSource, store *Store, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Poller{src: src, store: store, interval: interval, timeout: timeout}
}

// MaybePoll fetches quotes for symbols if the rate-limit window has elapsed.
// Returns whether a fetch was attempted.
func (p *Poller) MaybePoll(ctx context.Context, symbols []string, now time.Time) bool {
	if p.src == nil || len(symbols) == 0 {
		return false
	}

	p.mu.Lock()
	if !p.last.IsZero() && now.Sub(p.last) < p.interval {
		p.mu.Unlock()
		return false
	}
	p.last = now
	p.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	quotes, err := p.src.Fetch(cctx, symbols)
	if err != nil {
		log.Warn().Str("source", p.src.Name()).Err(err).Msg("fallback fetch failed")
		return true
	}

	ts := float64(now.UnixNano()) / float64(time.Second)
	for _, q := range quotes {
		p.store.Append(q.Symbol, PricePoint{Ts: ts, Price: q.Price})
	}
	log.Debug().Str("source", p.src.Name()).Int("quotes", len(quotes)).Msg("fallback poll done")
	return true
}
