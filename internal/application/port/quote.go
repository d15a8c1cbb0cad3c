package port

import "context"

// Quote is a single fetched price.
type Quote struct {
	Symbol string
	Price  float64
}

// QuoteSource is a polling fallback for symbols the stream is not serving.
// Fetch may return fewer quotes than requested; symbols the source cannot
// serve are simply absent.
type QuoteSource interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]Quote, error)
}
