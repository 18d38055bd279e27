package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
	"github.com/linkgenetic/linkid-resolver/linkid"
)

// RegistryOptions tune record creation defaults.
type RegistryOptions struct {
	BaseURL          string
	DefaultCacheTTL  int
	DefaultMediaType string
	DefaultLanguage  string
	DefaultQuality   float64
}

// RegistryUsecase hosts the register/update/withdraw mutations and
// their cache-invalidation side effects. Mutations bypass the
// resolution cache, write the store, then evict affected entries
// before returning, so a resolve issued after a mutation never
// observes pre-mutation state.
type RegistryUsecase struct {
	repo   RecordRepository
	cache  ResolutionCache
	events EventPublisher
	opts   RegistryOptions
}

func NewRegistryUsecase(repo RecordRepository, cache ResolutionCache, events EventPublisher, opts RegistryOptions) *RegistryUsecase {
	if opts.DefaultCacheTTL <= 0 {
		opts.DefaultCacheTTL = domain.DefaultCacheTTL
	}
	if opts.DefaultMediaType == "" {
		opts.DefaultMediaType = "text/html"
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	if opts.DefaultQuality <= 0 {
		opts.DefaultQuality = 1.0
	}
	return &RegistryUsecase{repo: repo, cache: cache, events: events, opts: opts}
}

// Register mints a fresh identifier and persists a record seeded with
// one candidate built from the request.
func (uc *RegistryUsecase) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.RegistrationResponse, error) {
	ctx, span := tracer.Start(ctx, "Registry.Register")
	defer span.End()

	id := linkid.New()
	now := time.Now().UTC()

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = uc.opts.DefaultMediaType
	}
	language := req.Language
	if language == "" {
		language = uc.opts.DefaultLanguage
	}

	seed := domain.ResolutionRecord{
		URI:          req.TargetURI,
		Status:       domain.RecordActive,
		MediaType:    mediaType,
		Language:     language,
		Quality:      uc.opts.DefaultQuality,
		ValidFrom:    &now,
		LastModified: &now,
		Metadata:     req.Metadata,
	}

	record := domain.LinkIDRecord{
		ID:      id,
		Status:  domain.StatusActive,
		Issuer:  req.Issuer,
		Created: now,
		Updated: now,
		Records: []domain.ResolutionRecord{seed},
		Policy:  &domain.ResolutionPolicy{CacheTTL: uc.opts.DefaultCacheTTL},
	}

	if err := uc.repo.Save(ctx, &record); err != nil {
		span.RecordError(err)
		return nil, err
	}

	slog.InfoContext(ctx, "registered linkid",
		slog.String("id", id),
		slog.String("target", req.TargetURI),
	)
	uc.publish(ctx, domain.EventRegister, id, req.Issuer)

	return &domain.RegistrationResponse{
		ID:          id,
		Status:      domain.StatusActive,
		Created:     now,
		ResolverURL: uc.opts.BaseURL + "/" + id,
	}, nil
}

// Update replaces the record's candidate list wholesale. Only the
// issuer that created the record may update it.
func (uc *RegistryUsecase) Update(ctx context.Context, id string, newRecords []domain.ResolutionRecord, issuer string) (*domain.LinkIDRecord, error) {
	ctx, span := tracer.Start(ctx, "Registry.Update")
	defer span.End()

	normalized, err := linkid.Validate(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	existing, err := uc.repo.FindActiveByID(ctx, normalized)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if issuer != existing.Issuer {
		return nil, domain.UnauthorizedError{ID: normalized, Issuer: issuer}
	}

	existing.Records = newRecords
	existing.Updated = time.Now().UTC()

	if err := uc.repo.Save(ctx, existing); err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.evict(ctx, normalized)

	slog.InfoContext(ctx, "updated linkid",
		slog.String("id", normalized),
		slog.Int("records", len(newRecords)),
	)
	uc.publish(ctx, domain.EventUpdate, normalized, issuer)

	return existing, nil
}

// Withdraw flips the record to withdrawn and attaches a tombstone.
// Withdrawal is terminal; there is no hard delete.
func (uc *RegistryUsecase) Withdraw(ctx context.Context, id, reason, contact, issuer string) error {
	ctx, span := tracer.Start(ctx, "Registry.Withdraw")
	defer span.End()

	normalized, err := linkid.Validate(id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	existing, err := uc.repo.FindActiveByID(ctx, normalized)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if issuer != existing.Issuer {
		return domain.UnauthorizedError{ID: normalized, Issuer: issuer}
	}

	now := time.Now().UTC()
	existing.Status = domain.StatusWithdrawn
	existing.Tombstone = &domain.Tombstone{
		WithdrawnAt: now,
		Reason:      reason,
		Contact:     contact,
	}
	existing.Updated = now

	if err := uc.repo.Save(ctx, existing); err != nil {
		span.RecordError(err)
		return err
	}

	uc.evict(ctx, normalized)

	slog.InfoContext(ctx, "withdrew linkid",
		slog.String("id", normalized),
		slog.String("reason", reason),
	)
	uc.publish(ctx, domain.EventWithdraw, normalized, issuer)

	return nil
}

// Get returns the record regardless of status.
func (uc *RegistryUsecase) Get(ctx context.Context, id string) (*domain.LinkIDRecord, error) {
	normalized, err := linkid.Validate(id)
	if err != nil {
		return nil, err
	}
	return uc.repo.FindByID(ctx, normalized)
}

// GetByIssuer lists records registered by an issuer.
func (uc *RegistryUsecase) GetByIssuer(ctx context.Context, issuer string) ([]domain.LinkIDRecord, error) {
	return uc.repo.FindByIssuer(ctx, issuer)
}

// Exists reports whether a record exists for the identifier.
func (uc *RegistryUsecase) Exists(ctx context.Context, id string) bool {
	normalized, err := linkid.Validate(id)
	if err != nil {
		return false
	}
	_, err = uc.repo.FindByID(ctx, normalized)
	return err == nil
}

// Stats aggregates record counts by status.
func (uc *RegistryUsecase) Stats(ctx context.Context) (domain.RegistryStats, error) {
	active, err := uc.repo.CountByStatus(ctx, domain.StatusActive)
	if err != nil {
		return domain.RegistryStats{}, err
	}
	withdrawn, err := uc.repo.CountByStatus(ctx, domain.StatusWithdrawn)
	if err != nil {
		return domain.RegistryStats{}, err
	}
	return domain.RegistryStats{
		Total:     active + withdrawn,
		Active:    active,
		Withdrawn: withdrawn,
	}, nil
}

// evict synchronously removes every cached entry for the identifier.
// Eviction faults are logged but never fail the mutation: the store
// already holds the new state and entries expire by TTL.
func (uc *RegistryUsecase) evict(ctx context.Context, id string) {
	if err := uc.cache.EvictPattern(ctx, CacheKeyPrefix(id)); err != nil {
		slog.WarnContext(ctx, "cache eviction failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (uc *RegistryUsecase) publish(ctx context.Context, eventType, id, issuer string) {
	if uc.events == nil {
		return
	}
	err := uc.events.Publish(ctx, domain.Event{
		Type:      eventType,
		ID:        id,
		Issuer:    issuer,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "event publish failed",
			slog.String("id", id),
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
	}
}
