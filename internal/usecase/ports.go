package usecase

import (
	"context"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
)

// RecordRepository defines storage operations for LinkID records.
// Implementations return domain.NotFoundError when the id is absent
// and wrap infrastructure faults so they stay distinguishable from a
// missing record.
type RecordRepository interface {
	FindByID(ctx context.Context, id string) (*domain.LinkIDRecord, error)
	FindActiveByID(ctx context.Context, id string) (*domain.LinkIDRecord, error)
	Save(ctx context.Context, record *domain.LinkIDRecord) error
	FindByIssuer(ctx context.Context, issuer string) ([]domain.LinkIDRecord, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// ResolutionCache memoizes complete resolution outcomes. The cache is
// advisory: callers treat any error as a miss.
type ResolutionCache interface {
	Get(ctx context.Context, key string) (*domain.ResolutionResult, error)
	Set(ctx context.Context, key string, result *domain.ResolutionResult, ttlSeconds int) error
	EvictPattern(ctx context.Context, prefix string) error
}

// EventPublisher broadcasts mutation events. Publish failures never
// fail the mutation itself.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
