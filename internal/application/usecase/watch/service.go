package watch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"fxwatch/internal/application/port"
)

type ServiceDeps struct {
	Feed     port.PriceFeed
	Fallback port.QuoteSource // nil when no fallback source is available

	Symbols  []string
	Capacity int

	PollEvery     time.Duration // fallback rate-limit window
	FetchTimeout  time.Duration
	RefreshEvery  time.Duration // periodic trigger cadence
	SnapshotEvery time.Duration // console snapshot line cadence
}

// Service owns the shared ingestion state: the rolling store, the
// subscription tracker and the fallback poller. It is constructed once and
// passed by reference to every worker.
type Service struct {
	deps    ServiceDeps
	store   *Store
	tracker *Tracker
	poller  *Poller
	fmt     *Formatter
}

func NewService(deps ServiceDeps) *Service {
	store := NewStore(deps.Symbols, deps.Capacity)
	return &Service{
		deps:    deps,
		store:   store,
		tracker: NewTracker(),
		poller:  NewPoller(deps.Fallback, store, deps.PollEvery, deps.FetchTimeout),
		fmt:     NewFormatter(),
	}
}

func (s *Service) Symbols() []string { return s.store.Symbols() }

// Run consumes the streaming feed until ctx is canceled. Ticks go into the
// store and defensively mark their symbol accepted; acknowledgements go into
// the tracker.
func (s *Service) Run(ctx context.Context) error {
	if s.deps.Feed == nil {
		return errors.New("no feed")
	}

	ticks, acks, err := s.deps.Feed.Subscribe(ctx, s.store.Symbols())
	if err != nil {
		return err
	}
	log.Info().Str("feed", s.deps.Feed.Name()).Msg("feed started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case t, ok := <-ticks:
			if !ok {
				return nil
			}
			s.store.Append(t.Symbol, PricePoint{Ts: t.Ts, Price: t.Price})
			s.tracker.MarkAccepted(t.Symbol)

		case a, ok := <-acks:
			if !ok {
				return nil
			}
			s.tracker.RecordAck(a.Accepted, a.Rejected)
			log.Info().
				Strs("accepted", a.Accepted).
				Strs("rejected", a.Rejected).
				Msg("subscribe status")
		}
	}
}

// Refresh runs the fallback poll for symbols still needing one (subject to
// the poller's rate limit) and returns the current derived series.
func (s *Service) Refresh(ctx context.Context, now time.Time) map[string][]SeriesPoint {
	needed := s.tracker.NeedingFallback(s.store.Symbols(), func(sym string) bool {
		return s.store.Len(sym) > 0
	})
	if len(needed) > 0 {
		s.poller.MaybePoll(ctx, needed, now)
	}
	return s.Series()
}

// Series derives the percentage-change series per configured symbol from the
// current store contents. Symbols without data map to an empty series.
func (s *Service) Series() map[string][]SeriesPoint {
	out := make(map[string][]SeriesPoint, len(s.store.Symbols()))
	for _, sym := range s.store.Symbols() {
		out[sym] = BuildSeries(s.store.Snapshot(sym))
	}
	return out
}

// RunTrigger is the periodic trigger: on every refresh tick it polls the
// fallback if due and rewrites the live console line; on the snapshot cadence
// it appends a timestamped history line.
func (s *Service) RunTrigger(ctx context.Context, sink port.Sink) error {
	refreshEvery := s.deps.RefreshEvery
	if refreshEvery <= 0 {
		refreshEvery = time.Second
	}
	snapshotEvery := s.deps.SnapshotEvery
	if snapshotEvery <= 0 {
		snapshotEvery = 5 * time.Minute
	}

	refreshTicker := time.NewTicker(refreshEvery)
	defer refreshTicker.Stop()
	snapTicker := time.NewTicker(snapshotEvery)
	defer snapTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			if sink != nil {
				_ = sink.NewLine()
			}
			return ctx.Err()

		case now := <-refreshTicker.C:
			series := s.Refresh(ctx, now)
			if sink != nil {
				_ = sink.WriteLive(s.fmt.Render(s.store.Symbols(), series, RenderLive))
			}

		case now := <-snapTicker.C:
			if sink != nil {
				_ = sink.WriteSnapshot(now, s.fmt.Render(s.store.Symbols(), s.Series(), RenderSnapshot))
			}
		}
	}
}
