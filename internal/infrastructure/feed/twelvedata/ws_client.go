package twelvedata

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fxwatch/internal/application/port"
)

const feedName = "TWELVEDATA"

// FeedConfig carries the connection parameters explicitly; nothing is
// captured from package globals.
type FeedConfig struct {
	WsURL          string // e.g. wss://ws.twelvedata.com/v1/quotes/price
	APIKey         string // optional; subscribe is still attempted without one
	HeartbeatEvery time.Duration
	ReconnectWait  time.Duration
}

type Feed struct {
	cfg FeedConfig
}

func NewFeed(cfg FeedConfig) *Feed {
	cfg.WsURL = strings.TrimSpace(cfg.WsURL)
	if cfg.HeartbeatEvery <= 0 {
		cfg.HeartbeatEvery = 10 * time.Second
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 5 * time.Second
	}
	return &Feed{cfg: cfg}
}

func (f *Feed) Name() string { return feedName }

func (f *Feed) Subscribe(ctx context.Context, symbols []string) (<-chan port.Tick, <-chan port.Ack, error) {
	syms := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		syms = append(syms, s)
	}
	if len(syms) == 0 {
		return nil, nil, errors.New("symbols empty")
	}

	wsURL, err := buildURL(f.cfg.WsURL, f.cfg.APIKey)
	if err != nil {
		return nil, nil, err
	}

	ticks := make(chan port.Tick, 1024)
	acks := make(chan port.Ack, 16)
	go f.run(ctx, wsURL, syms, ticks, acks)
	return ticks, acks, nil
}

func buildURL(base, apiKey string) (string, error) {
	if base == "" {
		return "", errors.New("stream ws_url empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("apikey", apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (f *Feed) run(ctx context.Context, wsURL string, symbols []string, ticks chan<- port.Tick, acks chan<- port.Ack) {
	defer close(ticks)
	defer close(acks)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Info().Str("feed", f.Name()).Msg("ws connecting")
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.DefaultDialer.DialContext(cctx, wsURL, nil)
		cancel()
		if err != nil {
			log.Error().Str("feed", f.Name()).Err(err).Msg("ws dial failed")
			if !f.wait(ctx) {
				return
			}
			continue
		}

		log.Info().Str("feed", f.Name()).Msg("ws connected")
		err = f.session(ctx, conn, symbols, ticks, acks)

		if ctx.Err() != nil {
			return
		}
		log.Warn().Str("feed", f.Name()).Err(err).Msg("ws disconnected, reconnecting")
		if !f.wait(ctx) {
			return
		}
	}
}

// wait sleeps the fixed reconnect backoff, returning false once ctx ends.
func (f *Feed) wait(ctx context.Context) bool {
	t := time.NewTimer(f.cfg.ReconnectWait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// session sends the subscribe request, then reads events and sends heartbeats
// until the connection drops or ctx ends.
func (f *Feed) session(ctx context.Context, conn *websocket.Conn, symbols []string, ticks chan<- port.Tick, acks chan<- port.Ack) error {
	if err := conn.WriteMessage(websocket.TextMessage, subscribeMessage(symbols)); err != nil {
		return err
	}
	log.Info().Str("feed", f.Name()).Strs("symbols", symbols).Msg("subscribe sent")

	hbTicker := time.NewTicker(f.cfg.HeartbeatEvery)
	defer hbTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			f.dispatch(ctx, b, ticks, acks)
		}
	}()

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case err = <-errCh:
			break loop
		case <-hbTicker.C:
			if err = conn.WriteMessage(websocket.TextMessage, heartbeatMessage()); err != nil {
				break loop
			}
		}
	}

	// unblock ReadMessage and wait for the reader to exit before the caller
	// closes the outbound channels
	_ = conn.Close()
	<-errCh
	return err
}

// dispatch classifies one inbound payload. Malformed payloads are dropped;
// the read loop keeps running.
func (f *Feed) dispatch(ctx context.Context, b []byte, ticks chan<- port.Tick, acks chan<- port.Ack) {
	events, err := parseEvents(b, time.Now())
	if err != nil {
		log.Warn().Str("feed", f.Name()).Err(err).Msg("malformed payload dropped")
		return
	}
	for _, ev := range events {
		switch {
		case ev.ack != nil:
			select {
			case acks <- *ev.ack:
			case <-ctx.Done():
				return
			}
		case ev.tick != nil:
			select {
			case ticks <- *ev.tick:
			case <-ctx.Done():
				return
			}
		}
	}
}
