package watch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreEvictsOldestAtCapacity(t *testing.T) {
	const capacity = 5
	s := NewStore([]string{"EUR/USD"}, capacity)

	for i := 0; i < capacity+3; i++ {
		s.Append("EUR/USD", PricePoint{Ts: float64(i), Price: float64(i)})
	}

	snap := s.Snapshot("EUR/USD")
	require.Len(t, snap, capacity)
	for i, p := range snap {
		assert.Equal(t, float64(i+3), p.Ts, "snapshot must hold the last N appends in append order")
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore([]string{"EUR/USD"}, 10)
	s.Append("EUR/USD", PricePoint{Ts: 1, Price: 1.0})

	snap := s.Snapshot("EUR/USD")
	s.Append("EUR/USD", PricePoint{Ts: 2, Price: 2.0})

	require.Len(t, snap, 1)
	assert.Equal(t, 2, s.Len("EUR/USD"))
}

func TestStoreDropsUnknownSymbol(t *testing.T) {
	s := NewStore([]string{"EUR/USD"}, 10)
	s.Append("XAU/USD", PricePoint{Ts: 1, Price: 1.0})

	assert.Nil(t, s.Snapshot("XAU/USD"))
	assert.Equal(t, 0, s.Len("XAU/USD"))
}

func TestStoreNormalizesSymbols(t *testing.T) {
	s := NewStore([]string{" eur/usd ", "EUR/USD", ""}, 10)
	require.Equal(t, []string{"EUR/USD"}, s.Symbols())

	s.Append("eur/usd", PricePoint{Ts: 1, Price: 1.0})
	assert.Equal(t, 1, s.Len("EUR/USD"))
}

func TestStoreConcurrentAppendAndSnapshot(t *testing.T) {
	const capacity = 50
	s := NewStore([]string{"EUR/USD", "USD/JPY"}, capacity)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			sym := "EUR/USD"
			if w%2 == 1 {
				sym = "USD/JPY"
			}
			for i := 0; i < 500; i++ {
				s.Append(sym, PricePoint{Ts: float64(i), Price: float64(i)})
				_ = s.Snapshot(sym)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, capacity, s.Len("EUR/USD"))
	assert.Equal(t, capacity, s.Len("USD/JPY"))
}
