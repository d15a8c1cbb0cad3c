package twelvedata

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"fxwatch/internal/application/port"
	"fxwatch/internal/infrastructure/httpx"
)

// Client polls the batched quote endpoint:
// GET {base}/price?symbol=A,B&apikey=K -> {"A":{"price":...},"B":{"price":...}}.
// Used as the fallback strategy when an API credential is available.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpx.Client
}

func NewClient(baseURL, apiKey string, hc *httpx.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		http:    hc,
	}
}

func (c *Client) Name() string { return "twelvedata-rest" }

func (c *Client) Fetch(ctx context.Context, symbols []string) ([]port.Quote, error) {
	q := url.Values{}
	q.Set("symbol", strings.Join(symbols, ","))
	q.Set("apikey", c.apiKey)

	var body map[string]json.RawMessage
	if err := c.http.GetJSON(ctx, c.baseURL+"/price?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	out := make([]port.Quote, 0, len(symbols))
	for _, sym := range symbols {
		raw, ok := body[sym]
		if !ok {
			continue
		}
		var entry struct {
			Price any `json:"price"` // number or numeric string
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		price, ok := toFloat(entry.Price)
		if !ok {
			continue
		}
		out = append(out, port.Quote{Symbol: sym, Price: price})
	}
	return out, nil
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
