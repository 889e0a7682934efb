package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mingmanhk/deepticker/internal/cache"
	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
	"github.com/mingmanhk/deepticker/internal/providers"
)

// Service dispatches analysis requests to AI providers and caches the
// parsed results by content fingerprint.
type Service struct {
	registry    *providers.Registry
	credentials interfaces.CredentialStore
	kv          interfaces.SystemKV
	cache       *cache.Cache[*models.Insight]
	ttl         time.Duration
	logger      *common.Logger
	now         func() time.Time
}

type Option func(*Service)

// WithTTL overrides the insight cache lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.cache.SetClock(now)
	}
}

func NewService(registry *providers.Registry, credentials interfaces.CredentialStore, kv interfaces.SystemKV, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		registry:    registry,
		credentials: credentials,
		kv:          kv,
		cache:       cache.New[*models.Insight](),
		ttl:         5 * time.Minute,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ interfaces.InsightService = (*Service)(nil)

// GenerateInsight produces an analysis of the given kind for the
// snapshot, consulting the fingerprint cache before dispatching to a
// provider.
func (s *Service) GenerateInsight(ctx context.Context, kind models.InsightKind, snapshot *models.PortfolioSnapshot, provider models.ProviderID, promptOverride string) (*models.Insight, error) {
	if !models.ValidInsightKind(kind) {
		return nil, fmt.Errorf("unknown insight kind %q", kind)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("nil portfolio snapshot")
	}

	resolved, err := s.ResolveProvider(ctx, provider)
	if err != nil {
		return nil, err
	}

	// No per-request override: fall back to the user's stored template,
	// then the built-in default for the kind.
	if promptOverride == "" {
		stored, err := s.kv.Get(ctx, interfaces.KVCustomPrompt)
		if err != nil {
			return nil, fmt.Errorf("reading custom prompt: %w", err)
		}
		promptOverride = stored
	}
	promptText := promptOverride
	if promptText == "" {
		promptText = defaultPrompts[kind]
	}
	key := Fingerprint(resolved, kind, snapshot, promptText)

	s.cache.DropExpired(key)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug().
			Str("kind", string(kind)).
			Str("provider", string(resolved)).
			Msg("Insight cache hit")
		hit := *cached
		hit.Cached = true
		return &hit, nil
	}

	adapter, err := s.registry.Get(resolved)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(kind, snapshot, promptOverride)

	start := s.now()
	raw, err := adapter.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("provider", string(resolved)).
			Str("kind", string(kind)).
			Msg("Provider request failed")
		return nil, &RequestError{Provider: resolved, Err: err}
	}
	s.logger.Debug().
		Str("provider", string(resolved)).
		Str("kind", string(kind)).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Provider request completed")

	insight, err := parseInsight(resolved, kind, raw)
	if err != nil {
		return nil, err
	}
	insight.ID = uuid.New().String()
	insight.GeneratedAt = s.now()

	s.cache.Put(key, insight, s.ttl)
	return insight, nil
}

// ResolveProvider picks the provider for a request: an explicit choice
// wins, then the user's stored selection, then the default. Whichever
// is chosen must have a credential on file.
func (s *Service) ResolveProvider(ctx context.Context, requested models.ProviderID) (models.ProviderID, error) {
	if requested != "" {
		if !models.ValidProvider(requested) {
			return "", fmt.Errorf("unknown provider %q", requested)
		}
		if err := s.requireCredential(ctx, requested); err != nil {
			return "", err
		}
		return requested, nil
	}

	if selected, err := s.kv.Get(ctx, interfaces.KVSelectedProvider); err == nil && selected != "" {
		id := models.ProviderID(selected)
		if models.ValidProvider(id) {
			if err := s.requireCredential(ctx, id); err != nil {
				return "", err
			}
			return id, nil
		}
	}

	if err := s.requireCredential(ctx, models.DefaultProvider); err == nil {
		return models.DefaultProvider, nil
	}
	return "", ErrNoProviderSelected
}

func (s *Service) requireCredential(ctx context.Context, id models.ProviderID) error {
	secret, err := s.credentials.GetSecret(ctx, id)
	if err != nil {
		return fmt.Errorf("reading credential for %s: %w", id, err)
	}
	if secret == "" {
		return fmt.Errorf("%w: %s", ErrProviderUnconfigured, id)
	}
	return nil
}

// ProviderStatuses reports configuration and selection state for every
// known provider.
func (s *Service) ProviderStatuses(ctx context.Context) ([]models.ProviderStatus, error) {
	selected, err := s.kv.Get(ctx, interfaces.KVSelectedProvider)
	if err != nil {
		return nil, fmt.Errorf("reading selected provider: %w", err)
	}

	all := models.AllProviders()
	statuses := make([]models.ProviderStatus, 0, len(all))
	for _, id := range all {
		secret, err := s.credentials.GetSecret(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reading credential for %s: %w", id, err)
		}
		statuses = append(statuses, models.ProviderStatus{
			ID:         id,
			Configured: secret != "",
			Selected:   selected == string(id),
			Default:    id == models.DefaultProvider,
		})
	}
	return statuses, nil
}
