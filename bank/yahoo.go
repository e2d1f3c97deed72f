package bank

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultYahooBaseURL is the Yahoo Finance chart API endpoint.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooOptions configures YahooQuotes.
type YahooOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// YahooQuotes fetches live quotes from the Yahoo Finance chart API.
type YahooQuotes struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

// NewYahooQuotes creates a live quote source.
func NewYahooQuotes(optFns ...func(o *YahooOptions)) *YahooQuotes {
	opts := YahooOptions{
		BaseURL:    DefaultYahooBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		UserAgent:  "agentloop/1.0",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	return &YahooQuotes{baseURL: opts.BaseURL, client: opts.HTTPClient, userAgent: opts.UserAgent}
}

// Quote implements QuoteSource.
func (y *YahooQuotes) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	endpoint := y.baseURL + url.PathEscape(symbol) + "?interval=1d&range=1d"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("yahoo: build request: %w", err)
	}
	req.Header.Set("User-Agent", y.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("yahoo: fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Quote{}, fmt.Errorf("yahoo: read %s: %w", symbol, err)
	}
	if resp.StatusCode != http.StatusOK {
		if desc := gjson.GetBytes(body, "chart.error.description").String(); desc != "" {
			return Quote{}, fmt.Errorf("yahoo: %s: %s", symbol, desc)
		}
		return Quote{}, fmt.Errorf("yahoo: %s: unexpected status %d", symbol, resp.StatusCode)
	}

	return parseChart(symbol, body)
}

func parseChart(symbol string, body []byte) (Quote, error) {
	if !gjson.ValidBytes(body) {
		return Quote{}, fmt.Errorf("yahoo: %s: invalid response", symbol)
	}
	meta := gjson.GetBytes(body, "chart.result.0.meta")
	price := meta.Get("regularMarketPrice").Float()
	if !meta.Exists() || price == 0 {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrNoPrice)
	}

	prev := meta.Get("chartPreviousClose").Float()
	if prev == 0 {
		prev = meta.Get("previousClose").Float()
	}
	name := meta.Get("longName").String()
	if name == "" {
		name = meta.Get("shortName").String()
	}
	if name == "" {
		name = symbol
	}

	q := Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         price,
		PreviousClose: prev,
		Volume:        meta.Get("regularMarketVolume").Int(),
	}
	if ts := meta.Get("regularMarketTime").Int(); ts > 0 {
		q.Time = time.Unix(ts, 0)
	}
	return q, nil
}
