package quote

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/models"
)

// --- Mocks ---

type mockSource struct {
	id    models.QuoteSourceID
	mu    sync.Mutex
	calls int32
	delay time.Duration
	fn    func(symbol string) (*models.Quote, error)
}

func (m *mockSource) ID() models.QuoteSourceID { return m.id }

func (m *mockSource) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	fn := m.fn
	m.mu.Unlock()
	return fn(symbol)
}

func (m *mockSource) callCount() int {
	return int(atomic.LoadInt32(&m.calls))
}

func quoteFor(symbol string, price float64, source models.QuoteSourceID) *models.Quote {
	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		PreviousClose: price - 1,
		Source:        source,
		FetchedAt:     time.Now(),
	}
}

func okSource(id models.QuoteSourceID, price float64) *mockSource {
	return &mockSource{id: id, fn: func(symbol string) (*models.Quote, error) {
		return quoteFor(symbol, price, id), nil
	}}
}

func failingSource(id models.QuoteSourceID) *mockSource {
	return &mockSource{id: id, fn: func(string) (*models.Quote, error) {
		return nil, errors.New("source down")
	}}
}

// --- Tests ---

func TestGetQuote_FreshCacheHitSkipsNetwork(t *testing.T) {
	primary := okSource(models.QuoteSourceEODHD, 100)
	svc := NewService(primary, nil, common.NewSilentLogger())

	first, err := svc.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if primary.callCount() != 1 {
		t.Errorf("expected 1 source call, got %d", primary.callCount())
	}
	if second != first {
		t.Error("expected the cached quote to be returned unchanged")
	}
}

func TestGetQuote_PrimaryFailsSecondarySucceeds(t *testing.T) {
	now := time.Now()
	primary := failingSource(models.QuoteSourceEODHD)
	secondary := okSource(models.QuoteSourceYahoo, 55.5)

	svc := NewService(primary, secondary, common.NewSilentLogger(),
		WithTTLs(5*time.Minute, 10*time.Minute))
	svc.Cache().SetClock(func() time.Time { return now })

	quote, err := svc.GetQuote(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Source != models.QuoteSourceYahoo {
		t.Errorf("expected source yahoo, got %s", quote.Source)
	}
	if quote.Price != 55.5 {
		t.Errorf("expected price 55.5, got %.2f", quote.Price)
	}

	// Secondary results get the longer TTL: still fresh at 9 minutes.
	now = now.Add(9 * time.Minute)
	if _, err := svc.GetQuote(context.Background(), "MSFT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secondary.callCount() != 1 {
		t.Errorf("expected cached hit at 9m with secondary TTL, got %d secondary calls", secondary.callCount())
	}

	// Past 10 minutes the entry expires and sources are consulted again.
	now = now.Add(2 * time.Minute)
	if _, err := svc.GetQuote(context.Background(), "MSFT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secondary.callCount() != 2 {
		t.Errorf("expected refetch past secondary TTL, got %d secondary calls", secondary.callCount())
	}
}

func TestGetQuote_BothFailStaleCacheServed(t *testing.T) {
	now := time.Now()
	primary := okSource(models.QuoteSourceEODHD, 42)
	svc := NewService(primary, failingSource(models.QuoteSourceYahoo), common.NewSilentLogger())
	svc.Cache().SetClock(func() time.Time { return now })

	// Seed the cache with a successful fetch.
	seeded, err := svc.GetQuote(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seeded.Stale {
		t.Fatal("seeded quote must not be stale")
	}

	// Expire the entry and break the primary.
	now = now.Add(time.Hour)
	primary.mu.Lock()
	primary.fn = func(string) (*models.Quote, error) { return nil, errors.New("down") }
	primary.mu.Unlock()

	quote, err := svc.GetQuote(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if !quote.Stale {
		t.Error("expected quote marked stale")
	}
	if quote.Price != 42 {
		t.Errorf("expected stale price 42, got %.2f", quote.Price)
	}
	if seeded.Stale {
		t.Error("cached quote must not be mutated by the stale copy")
	}
}

func TestGetQuote_BothFailNoCache(t *testing.T) {
	svc := NewService(failingSource(models.QuoteSourceEODHD), failingSource(models.QuoteSourceYahoo), common.NewSilentLogger())

	_, err := svc.GetQuote(context.Background(), "GME")
	if !errors.Is(err, ErrQuoteUnavailable) {
		t.Fatalf("expected ErrQuoteUnavailable, got %v", err)
	}
}

func TestGetQuote_NilSecondarySkipsTier(t *testing.T) {
	svc := NewService(failingSource(models.QuoteSourceEODHD), nil, common.NewSilentLogger())

	_, err := svc.GetQuote(context.Background(), "TSLA")
	if !errors.Is(err, ErrQuoteUnavailable) {
		t.Fatalf("expected ErrQuoteUnavailable with nil secondary, got %v", err)
	}
}

func TestGetQuote_SingleflightCollapsesDuplicates(t *testing.T) {
	primary := &mockSource{
		id:    models.QuoteSourceEODHD,
		delay: 50 * time.Millisecond,
		fn: func(symbol string) (*models.Quote, error) {
			return quoteFor(symbol, 10, models.QuoteSourceEODHD), nil
		},
	}
	svc := NewService(primary, nil, common.NewSilentLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetQuote(context.Background(), "AAPL"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if primary.callCount() != 1 {
		t.Errorf("expected at most one in-flight fetch per symbol, got %d calls", primary.callCount())
	}
}

func TestGetQuotes_AllSettleBeforeReturn(t *testing.T) {
	symbols := []string{"A", "B", "C", "D", "E", "SLOW"}

	primary := &mockSource{id: models.QuoteSourceEODHD}
	primary.fn = func(symbol string) (*models.Quote, error) {
		if symbol == "SLOW" {
			time.Sleep(150 * time.Millisecond)
		}
		if symbol == "C" {
			return nil, errors.New("source down")
		}
		return quoteFor(symbol, 1, models.QuoteSourceEODHD), nil
	}

	svc := NewService(primary, nil, common.NewSilentLogger(), WithMaxConcurrent(3))

	results := svc.GetQuotes(context.Background(), symbols)

	if len(results) != len(symbols) {
		t.Fatalf("expected %d settled results, got %d", len(symbols), len(results))
	}
	for _, symbol := range symbols {
		if _, ok := results[symbol]; !ok {
			t.Errorf("missing settled result for %s", symbol)
		}
	}

	// One symbol failing must not abort the rest.
	if results["C"].Err == nil {
		t.Error("expected error recorded for C")
	}
	if results["A"].Err != nil || results["A"].Quote == nil {
		t.Error("expected A to resolve despite C failing")
	}
	if results["SLOW"].Quote == nil {
		t.Error("expected the slow symbol to settle before return")
	}
}
