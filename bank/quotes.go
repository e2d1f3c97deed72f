package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Ticker symbols of the precious metal futures used as spot price proxies.
const (
	GoldSymbol   = "GC=F"
	SilverSymbol = "SI=F"
)

// ErrNoPrice is returned when a source has no price for a symbol.
var ErrNoPrice = errors.New("no price available")

// Quote is a market price snapshot.
type Quote struct {
	Symbol        string
	Name          string
	Price         float64
	PreviousClose float64
	MarketCap     float64
	Volume        int64
	Time          time.Time
}

// Change returns the absolute and percent change against the previous close.
// Both are zero when the previous close is unknown.
func (q Quote) Change() (float64, float64) {
	if q.PreviousClose == 0 {
		return 0, 0
	}
	change := q.Price - q.PreviousClose
	return change, change / q.PreviousClose * 100
}

// QuoteSource fetches quotes by ticker symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// QuoteFunc adapts a function to QuoteSource.
type QuoteFunc func(ctx context.Context, symbol string) (Quote, error)

// Quote implements QuoteSource.
func (f QuoteFunc) Quote(ctx context.Context, symbol string) (Quote, error) {
	return f(ctx, symbol)
}

// StaticQuotes serves fixed quotes. It is the offline default.
type StaticQuotes struct {
	mu     sync.RWMutex
	quotes map[string]Quote
	clock  func() time.Time
}

// NewStaticQuotes creates a source serving quotes. Without quotes it serves
// DefaultQuotes.
func NewStaticQuotes(quotes ...Quote) *StaticQuotes {
	if len(quotes) == 0 {
		quotes = DefaultQuotes()
	}
	s := &StaticQuotes{quotes: make(map[string]Quote, len(quotes)), clock: time.Now}
	for _, q := range quotes {
		s.quotes[strings.ToUpper(q.Symbol)] = q
	}
	return s
}

// Set adds or replaces a quote.
func (s *StaticQuotes) Set(q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[strings.ToUpper(q.Symbol)] = q
}

// Quote implements QuoteSource.
func (s *StaticQuotes) Quote(_ context.Context, symbol string) (Quote, error) {
	s.mu.RLock()
	q, ok := s.quotes[strings.ToUpper(symbol)]
	s.mu.RUnlock()
	if !ok {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrNoPrice)
	}
	if q.Time.IsZero() {
		q.Time = s.clock()
	}
	return q, nil
}

// DefaultQuotes returns a small fixed market snapshot.
func DefaultQuotes() []Quote {
	return []Quote{
		{Symbol: "AAPL", Name: "Apple Inc.", Price: 229.87, PreviousClose: 227.52, MarketCap: 3.41e12, Volume: 48213900},
		{Symbol: "MSFT", Name: "Microsoft Corporation", Price: 514.45, PreviousClose: 517.10, MarketCap: 3.82e12, Volume: 17622400},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", Price: 203.90, PreviousClose: 201.42, MarketCap: 2.47e12, Volume: 31877500},
		{Symbol: "AMZN", Name: "Amazon.com, Inc.", Price: 228.84, PreviousClose: 231.03, MarketCap: 2.44e12, Volume: 36190200},
		{Symbol: "NVDA", Name: "NVIDIA Corporation", Price: 177.99, PreviousClose: 175.64, MarketCap: 4.34e12, Volume: 151208700},
		{Symbol: "TSLA", Name: "Tesla, Inc.", Price: 335.16, PreviousClose: 340.01, MarketCap: 1.08e12, Volume: 88512300},
		{Symbol: GoldSymbol, Name: "Gold", Price: 3412.80, PreviousClose: 3398.10},
		{Symbol: SilverSymbol, Name: "Silver", Price: 38.92, PreviousClose: 39.15},
	}
}
