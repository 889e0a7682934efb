package insight

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
	"github.com/mingmanhk/deepticker/internal/providers"
)

type mockProvider struct {
	id       models.ProviderID
	calls    atomic.Int32
	response string
	err      error
}

func (m *mockProvider) ID() models.ProviderID { return m.id }

func (m *mockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

type memCredStore struct {
	secrets map[models.ProviderID]string
}

func (m *memCredStore) GetSecret(ctx context.Context, id models.ProviderID) (string, error) {
	return m.secrets[id], nil
}

func (m *memCredStore) SetSecret(ctx context.Context, id models.ProviderID, value string) error {
	m.secrets[id] = value
	return nil
}

func (m *memCredStore) DeleteSecret(ctx context.Context, id models.ProviderID) error {
	delete(m.secrets, id)
	return nil
}

type memKV struct {
	values map[string]string
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) { return m.values[key], nil }

func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memKV) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

const summaryJSON = `{"summary":"steady portfolio","risk_level":"low","sentiment":"neutral","bullet_points":["diversified"]}`

func newTestService(t *testing.T, provider *mockProvider, creds *memCredStore, kv *memKV, opts ...Option) *Service {
	t.Helper()
	registry := providers.NewRegistry(provider)
	return NewService(registry, creds, kv, common.NewSilentLogger(), opts...)
}

func credentialed(ids ...models.ProviderID) *memCredStore {
	store := &memCredStore{secrets: make(map[models.ProviderID]string)}
	for _, id := range ids {
		store.secrets[id] = "test-key"
	}
	return store
}

func TestGenerateInsight_SecondCallServedFromCache(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}})
	snap := snapshotOf(map[string]int64{"AAPL": 10})

	first, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, "")
	if err != nil {
		t.Fatalf("first GenerateInsight failed: %v", err)
	}
	if first.Cached {
		t.Error("first result should not be marked cached")
	}
	if first.ID == "" {
		t.Error("insight should get an ID")
	}

	second, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, "")
	if err != nil {
		t.Fatalf("second GenerateInsight failed: %v", err)
	}
	if !second.Cached {
		t.Error("second result should be marked cached")
	}
	if got := provider.calls.Load(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
	if second.ID != first.ID {
		t.Error("cached result should carry the original insight ID")
	}
}

func TestGenerateInsight_ShareChangeBustsCache(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}})

	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snapshotOf(map[string]int64{"AAPL": 10}), models.ProviderGemini, ""); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}
	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snapshotOf(map[string]int64{"AAPL": 12}), models.ProviderGemini, ""); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}

	if got := provider.calls.Load(); got != 2 {
		t.Errorf("provider called %d times, want 2 after holdings change", got)
	}
}

func TestGenerateInsight_CacheExpiry(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}

	now := time.Now()
	clock := func() time.Time { return now }
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}}, WithClock(clock))
	snap := snapshotOf(map[string]int64{"AAPL": 10})

	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, ""); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}

	now = now.Add(4 * time.Minute)
	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, ""); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}
	if got := provider.calls.Load(); got != 1 {
		t.Fatalf("provider called %d times inside TTL, want 1", got)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, ""); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Errorf("provider called %d times past TTL, want 2", got)
	}
}

func TestGenerateInsight_ExpiredEntryCollectedOnLookup(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}

	now := time.Now()
	clock := func() time.Time { return now }
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}}, WithClock(clock))
	snap := snapshotOf(map[string]int64{"AAPL": 10})

	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, ""); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}
	if got := svc.cache.Len(); got != 1 {
		t.Fatalf("cache holds %d entries, want 1", got)
	}

	// The expired entry is dropped during the next lookup even when no
	// replacement gets stored.
	now = now.Add(6 * time.Minute)
	provider.response = "sorry, I cannot help with that"
	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, ""); err == nil {
		t.Fatal("expected a parse error past TTL")
	}
	if got := provider.calls.Load(); got != 2 {
		t.Errorf("provider called %d times, want 2", got)
	}
	if got := svc.cache.Len(); got != 0 {
		t.Errorf("cache holds %d entries after expiry lookup, want 0", got)
	}
}

func TestGenerateInsight_PromptOverrideBustsCache(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}})
	snap := snapshotOf(map[string]int64{"AAPL": 10})

	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, ""); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}
	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, "focus on dividend safety"); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}

	if got := provider.calls.Load(); got != 2 {
		t.Errorf("provider called %d times, want 2 after prompt override", got)
	}
}

func TestGenerateInsight_StoredPromptUsedWhenNoOverride(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	kv := &memKV{values: map[string]string{}}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), kv)
	snap := snapshotOf(map[string]int64{"AAPL": 10})

	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, ""); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}

	// Storing a custom template changes the fingerprint, so the next
	// call misses the cache and dispatches again.
	kv.values[interfaces.KVCustomPrompt] = "focus on dividend safety"
	if _, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, ""); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}

	if got := provider.calls.Load(); got != 2 {
		t.Errorf("provider called %d times, want 2 after stored prompt change", got)
	}
}

func TestGenerateInsight_ParseFailureNotCached(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: "sorry, I cannot help with that"}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}})
	snap := snapshotOf(map[string]int64{"AAPL": 10})

	_, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, "")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if parseErr.Raw != "sorry, I cannot help with that" {
		t.Errorf("raw = %q, want original response", parseErr.Raw)
	}

	_, err = svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snap, models.ProviderGemini, "")
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError on retry, got %v", err)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Errorf("provider called %d times, want 2; failures must not be cached", got)
	}
}

func TestGenerateInsight_TransportFailureWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	provider := &mockProvider{id: models.ProviderGemini, err: cause}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}})

	_, err := svc.GenerateInsight(context.Background(), models.InsightPortfolioSummary, snapshotOf(map[string]int64{"AAPL": 1}), models.ProviderGemini, "")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("RequestError should unwrap to the transport error")
	}
}

func TestGenerateInsight_UnknownKind(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}})

	_, err := svc.GenerateInsight(context.Background(), models.InsightKind("horoscope"), snapshotOf(nil), models.ProviderGemini, "")
	if err == nil {
		t.Fatal("expected error for unknown insight kind")
	}
	if provider.calls.Load() != 0 {
		t.Error("provider must not be called for an invalid kind")
	}
}

func TestResolveProvider_ExplicitWins(t *testing.T) {
	provider := &mockProvider{id: models.ProviderOpenAI, response: summaryJSON}
	kv := &memKV{values: map[string]string{interfaces.KVSelectedProvider: string(models.ProviderGemini)}}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini, models.ProviderOpenAI), kv)

	got, err := svc.ResolveProvider(context.Background(), models.ProviderOpenAI)
	if err != nil {
		t.Fatalf("ResolveProvider failed: %v", err)
	}
	if got != models.ProviderOpenAI {
		t.Errorf("resolved %q, want explicit openai over stored selection", got)
	}
}

func TestResolveProvider_StoredSelection(t *testing.T) {
	provider := &mockProvider{id: models.ProviderAnthropic, response: summaryJSON}
	kv := &memKV{values: map[string]string{interfaces.KVSelectedProvider: string(models.ProviderAnthropic)}}
	svc := newTestService(t, provider, credentialed(models.ProviderAnthropic), kv)

	got, err := svc.ResolveProvider(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveProvider failed: %v", err)
	}
	if got != models.ProviderAnthropic {
		t.Errorf("resolved %q, want stored anthropic selection", got)
	}
}

func TestResolveProvider_DefaultWhenCredentialed(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}})

	got, err := svc.ResolveProvider(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveProvider failed: %v", err)
	}
	if got != models.DefaultProvider {
		t.Errorf("resolved %q, want default provider", got)
	}
}

func TestResolveProvider_NothingConfigured(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	svc := newTestService(t, provider, credentialed(), &memKV{values: map[string]string{}})

	_, err := svc.ResolveProvider(context.Background(), "")
	if !errors.Is(err, ErrNoProviderSelected) {
		t.Fatalf("expected ErrNoProviderSelected, got %v", err)
	}
}

func TestResolveProvider_ExplicitUnconfigured(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}})

	_, err := svc.ResolveProvider(context.Background(), models.ProviderDeepSeek)
	if !errors.Is(err, ErrProviderUnconfigured) {
		t.Fatalf("expected ErrProviderUnconfigured, got %v", err)
	}
}

func TestResolveProvider_UnknownID(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini), &memKV{values: map[string]string{}})

	if _, err := svc.ResolveProvider(context.Background(), models.ProviderID("grok")); err == nil {
		t.Fatal("expected error for unknown provider ID")
	}
}

func TestProviderStatuses(t *testing.T) {
	provider := &mockProvider{id: models.ProviderGemini, response: summaryJSON}
	kv := &memKV{values: map[string]string{interfaces.KVSelectedProvider: string(models.ProviderOpenAI)}}
	svc := newTestService(t, provider, credentialed(models.ProviderGemini, models.ProviderOpenAI), kv)

	statuses, err := svc.ProviderStatuses(context.Background())
	if err != nil {
		t.Fatalf("ProviderStatuses failed: %v", err)
	}
	if len(statuses) != len(models.AllProviders()) {
		t.Fatalf("got %d statuses, want %d", len(statuses), len(models.AllProviders()))
	}

	byID := make(map[models.ProviderID]models.ProviderStatus)
	for _, st := range statuses {
		byID[st.ID] = st
	}

	if !byID[models.ProviderGemini].Configured || !byID[models.ProviderGemini].Default {
		t.Error("gemini should be configured and marked default")
	}
	if !byID[models.ProviderOpenAI].Selected {
		t.Error("openai should be marked selected")
	}
	if byID[models.ProviderAnthropic].Configured {
		t.Error("anthropic should not be configured")
	}
}
