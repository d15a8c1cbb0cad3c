package exhost

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"fxwatch/internal/application/port"
	"fxwatch/internal/infrastructure/httpx"
)

// Client derives pair prices from a rate table pivoted on a reference
// currency: GET {base}/latest?base=USD&symbols=EUR,JPY -> {"rates":{...}}.
// Keyless; only pairs quoted against the pivot are derivable, the rest are
// skipped for the poll.
type Client struct {
	baseURL string
	pivot   string
	http    *httpx.Client
}

func NewClient(baseURL, pivot string, hc *httpx.Client) *Client {
	pivot = strings.ToUpper(strings.TrimSpace(pivot))
	if pivot == "" {
		pivot = "USD"
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		pivot:   pivot,
		http:    hc,
	}
}

func (c *Client) Name() string { return "exchangerate-host" }

func (c *Client) Fetch(ctx context.Context, symbols []string) ([]port.Quote, error) {
	ccys := c.targetCurrencies(symbols)
	if len(ccys) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("base", c.pivot)
	q.Set("symbols", strings.Join(ccys, ","))

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.http.GetJSON(ctx, c.baseURL+"/latest?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	out := make([]port.Quote, 0, len(symbols))
	for _, pair := range symbols {
		base, quote, ok := splitPair(pair)
		if !ok {
			continue
		}
		switch {
		case base == c.pivot:
			if r, ok := body.Rates[quote]; ok {
				out = append(out, port.Quote{Symbol: pair, Price: r})
			}
		case quote == c.pivot:
			if r, ok := body.Rates[base]; ok && r != 0 {
				out = append(out, port.Quote{Symbol: pair, Price: 1 / r})
			}
		}
	}
	return out, nil
}

// targetCurrencies collects the non-pivot side of every derivable pair.
func (c *Client) targetCurrencies(symbols []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, pair := range symbols {
		base, quote, ok := splitPair(pair)
		if !ok {
			continue
		}
		var ccy string
		switch {
		case base == c.pivot:
			ccy = quote
		case quote == c.pivot:
			ccy = base
		default:
			continue
		}
		if _, dup := seen[ccy]; dup {
			continue
		}
		seen[ccy] = struct{}{}
		out = append(out, ccy)
	}
	sort.Strings(out)
	return out
}

func splitPair(pair string) (base, quote string, ok bool) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(pair)), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
