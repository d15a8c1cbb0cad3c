package port

import "context"

// Tick is one observed price for a symbol.
type Tick struct {
	Symbol string  // "EUR/USD"
	Price  float64
	Ts     float64 // unix seconds
}

// Ack reports which symbols the stream accepted or rejected for delivery.
type Ack struct {
	Accepted []string
	Rejected []string
}

// PriceFeed is a streaming quote source. Subscribe starts a background worker
// that owns the connection lifecycle; both channels close when it exits.
type PriceFeed interface {
	Name() string
	Subscribe(ctx context.Context, symbols []string) (<-chan Tick, <-chan Ack, error)
}
