package twelvedata

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"fxwatch/internal/application/port"
)

// priceFields are tried in order; the first finite value wins.
var priceFields = []string{"price", "last", "close", "bid"}

type event struct {
	tick *port.Tick
	ack  *port.Ack
}

func subscribeMessage(symbols []string) []byte {
	b, _ := json.Marshal(map[string]any{
		"action": "subscribe",
		"params": map[string]string{"symbols": strings.Join(symbols, ",")},
	})
	return b
}

func heartbeatMessage() []byte {
	return []byte(`{"action":"heartbeat"}`)
}

// parseEvents decodes one inbound payload: a single JSON object or an array
// batch. Unrecognized objects are skipped.
func parseEvents(b []byte, receivedAt time.Time) ([]event, error) {
	trimmed := bytes.TrimSpace(b)

	var raw []json.RawMessage
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, err
		}
	} else {
		raw = []json.RawMessage{trimmed}
	}

	var out []event
	for _, r := range raw {
		var obj map[string]any
		if err := json.Unmarshal(r, &obj); err != nil {
			return nil, err
		}
		if ev, ok := classify(obj, receivedAt); ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

// classify maps one event object to an acknowledgement or a price tick.
func classify(obj map[string]any, receivedAt time.Time) (event, bool) {
	if _, ok := obj["status"]; ok {
		ack := port.Ack{
			Accepted: ackSymbols(obj["success"]),
			Rejected: ackSymbols(obj["fails"]),
		}
		return event{ack: &ack}, true
	}

	sym, _ := obj["symbol"].(string)
	if sym == "" {
		return event{}, false
	}
	price, ok := extractPrice(obj)
	if !ok {
		return event{}, false
	}
	return event{tick: &port.Tick{
		Symbol: sym,
		Price:  price,
		Ts:     extractTimestamp(obj, receivedAt),
	}}, true
}

// ackSymbols pulls symbol names out of a success/fails array of
// {"symbol": ...} objects.
func ackSymbols(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["symbol"].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func extractPrice(obj map[string]any) (float64, bool) {
	for _, field := range priceFields {
		v, ok := obj[field]
		if !ok {
			continue
		}
		if f, ok := toFloat(v); ok && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f, true
		}
	}
	return 0, false
}

// extractTimestamp accepts a number or a numeric string; anything else falls
// back to the receipt time.
func extractTimestamp(obj map[string]any, receivedAt time.Time) float64 {
	if f, ok := toFloat(obj["timestamp"]); ok && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return float64(receivedAt.UnixNano()) / float64(time.Second)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
