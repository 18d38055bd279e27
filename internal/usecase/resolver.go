package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
	"github.com/linkgenetic/linkid-resolver/linkid"
)

var tracer = otel.Tracer("usecase")

// ResolverOptions tune response shaping.
type ResolverOptions struct {
	// MetadataCacheTTL is the shorter cache lifetime applied to
	// metadata responses for records without an explicit policy.
	MetadataCacheTTL int
}

// ResolverUsecase turns (identifier, parameters) into a redirect
// target or a metadata document. Stateless and re-entrant: all
// mutable state lives in the repository and the cache.
type ResolverUsecase struct {
	repo  RecordRepository
	cache ResolutionCache
	opts  ResolverOptions
}

func NewResolverUsecase(repo RecordRepository, cache ResolutionCache, opts ResolverOptions) *ResolverUsecase {
	if opts.MetadataCacheTTL <= 0 {
		opts.MetadataCacheTTL = 120
	}
	return &ResolverUsecase{repo: repo, cache: cache, opts: opts}
}

// Resolve runs the full resolution pipeline: validate, cache lookup,
// store lookup, filter, rank, shape, cache write.
func (uc *ResolverUsecase) Resolve(ctx context.Context, id string, params domain.ResolveParams) (*domain.ResolutionResult, error) {
	ctx, span := tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()

	normalized, err := linkid.Validate(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	key := CacheKey(normalized, params)
	if cached, err := uc.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "resolution cache get failed, treating as miss",
			slog.String("id", normalized),
			slog.String("error", err.Error()),
		)
	} else if cached != nil {
		return cached, nil
	}

	record, err := uc.repo.FindByID(ctx, normalized)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	switch record.Status {
	case domain.StatusActive:
	case domain.StatusWithdrawn:
		ts := domain.Tombstone{WithdrawnAt: record.Updated}
		if record.Tombstone != nil {
			ts = *record.Tombstone
		}
		return nil, domain.WithdrawnError{ID: normalized, Tombstone: ts}
	default:
		return nil, domain.NotFoundError{ID: normalized}
	}

	eligible := FilterCandidates(record.Records, params, time.Now().UTC())
	if len(eligible) == 0 {
		return nil, domain.NoMatchingRecordsError{ID: normalized}
	}

	ranked := RankCandidates(eligible, params)
	result := uc.shape(record, ranked, params)

	if err := uc.cache.Set(ctx, key, result, record.CacheTTL()); err != nil {
		slog.WarnContext(ctx, "resolution cache set failed",
			slog.String("id", normalized),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}

func (uc *ResolverUsecase) shape(record *domain.LinkIDRecord, ranked []domain.ResolutionRecord, params domain.ResolveParams) *domain.ResolutionResult {
	if params.Metadata {
		ttl := uc.opts.MetadataCacheTTL
		if record.Policy != nil && record.Policy.CacheTTL > 0 {
			ttl = record.Policy.CacheTTL
		}
		return &domain.ResolutionResult{
			Kind: domain.KindMetadata,
			Metadata: &domain.MetadataResult{
				Record:     *record,
				Candidates: ranked,
				ETag:       fmt.Sprintf(`W/"%s-%d"`, record.ID, record.Updated.Unix()),
				CacheTTL:   ttl,
			},
		}
	}

	best := ranked[0]
	return &domain.ResolutionResult{
		Kind: domain.KindRedirect,
		Redirect: &domain.RedirectResult{
			URI:      best.URI,
			Quality:  best.Quality,
			CacheTTL: record.CacheTTL(),
			// Redirects are always temporary; a 301 is never
			// produced automatically.
			Permanent: false,
		},
	}
}

// CacheKey derives the deterministic cache key for an id and its
// parameters. Every recognized parameter is emitted in a fixed order
// before hashing, so parameter order cannot affect the key and absent
// parameters cannot collide with other combinations. The id stays in
// the clear so prefix eviction covers every parameter variation.
func CacheKey(normalizedID string, params domain.ResolveParams) string {
	encoded := fmt.Sprintf("format=%s;lang=%s;version=%s;metadata=%t",
		params.Format, params.Language, params.Version, params.Metadata)
	return cachePrefix(normalizedID) + fmt.Sprintf("%016x", xxh3.HashString(encoded))
}

// CacheKeyPrefix returns the eviction prefix covering every cached
// entry for the identifier regardless of parameter variation.
func CacheKeyPrefix(normalizedID string) string {
	return cachePrefix(normalizedID)
}

func cachePrefix(normalizedID string) string {
	return "linkid:" + normalizedID + ":"
}
