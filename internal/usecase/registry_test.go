package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
)

type mockPublisher struct {
	events []domain.Event
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.Event) error {
	m.events = append(m.events, event)
	return nil
}

func newRegistry(repo *mockRepo, cache *mockCache, pub EventPublisher) *RegistryUsecase {
	return NewRegistryUsecase(repo, cache, pub, RegistryOptions{
		BaseURL: "https://w3id.org/linkid",
	})
}

func TestRegisterSeedsRecord(t *testing.T) {
	repo := newMockRepo()
	pub := &mockPublisher{}
	uc := newRegistry(repo, newMockCache(), pub)

	resp, err := uc.Register(context.Background(), domain.RegistrationRequest{
		TargetURI: "https://example.org/resource",
		Issuer:    "did:example:alice",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if len(resp.ID) != 32 {
		t.Fatalf("expected 32-character id, got %q", resp.ID)
	}
	if resp.ID != strings.ToLower(resp.ID) {
		t.Fatalf("expected lowercase id")
	}
	if resp.Status != domain.StatusActive {
		t.Fatalf("expected active status, got %s", resp.Status)
	}
	if !strings.HasSuffix(resp.ResolverURL, "/"+resp.ID) {
		t.Fatalf("resolver url should end with the id: %s", resp.ResolverURL)
	}

	saved := repo.records[resp.ID]
	if saved == nil {
		t.Fatalf("record was not persisted")
	}
	if len(saved.Records) != 1 {
		t.Fatalf("expected one seed candidate, got %d", len(saved.Records))
	}
	seed := saved.Records[0]
	if seed.URI != "https://example.org/resource" {
		t.Fatalf("unexpected seed uri: %s", seed.URI)
	}
	if seed.Quality != 1.0 {
		t.Fatalf("seed quality should default to 1.0, got %v", seed.Quality)
	}
	if seed.MediaType != "text/html" || seed.Language != "en" {
		t.Fatalf("seed defaults not applied: %+v", seed)
	}
	if seed.ValidFrom == nil {
		t.Fatalf("seed validFrom should be set")
	}
	if saved.Policy == nil || saved.Policy.CacheTTL != 3600 {
		t.Fatalf("default policy not applied: %+v", saved.Policy)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventRegister {
		t.Fatalf("expected register event, got %+v", pub.events)
	}
}

func TestRegisterThenResolveRoundTrip(t *testing.T) {
	repo := newMockRepo()
	cache := newMockCache()
	registry := newRegistry(repo, cache, nil)
	resolver := NewResolverUsecase(repo, cache, ResolverOptions{})

	resp, err := registry.Register(context.Background(), domain.RegistrationRequest{
		TargetURI: "https://example.org/resource",
		Issuer:    "did:example:alice",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := resolver.Resolve(context.Background(), resp.ID, domain.ResolveParams{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Kind != domain.KindRedirect {
		t.Fatalf("expected redirect, got %s", result.Kind)
	}
	if result.Redirect.URI != "https://example.org/resource" {
		t.Fatalf("expected redirect to registered target, got %s", result.Redirect.URI)
	}
	if result.Redirect.Quality != 1.0 {
		t.Fatalf("expected quality 1.0, got %v", result.Redirect.Quality)
	}
}

func TestUpdateReplacesRecordsAndEvicts(t *testing.T) {
	repo := newMockRepo()
	repo.put(activeRecord(
		domain.ResolutionRecord{URI: "https://old.example", Status: domain.RecordActive, Quality: 1.0},
	))
	cache := newMockCache()
	uc := newRegistry(repo, cache, nil)

	newRecords := []domain.ResolutionRecord{
		{URI: "https://new.example", Status: domain.RecordActive, Quality: 0.8},
		{URI: "https://alt.example", Status: domain.RecordActive, Quality: 0.5},
	}
	updated, err := uc.Update(context.Background(), testID, newRecords, "did:example:alice")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(updated.Records) != 2 || updated.Records[0].URI != "https://new.example" {
		t.Fatalf("records not replaced wholesale: %+v", updated.Records)
	}
	if !updated.Updated.After(updated.Created) {
		t.Fatalf("updated timestamp was not bumped")
	}
	if len(cache.evicted) != 1 || cache.evicted[0] != CacheKeyPrefix(testID) {
		t.Fatalf("expected synchronous eviction of %s, got %v", CacheKeyPrefix(testID), cache.evicted)
	}
}

func TestUpdateUnauthorized(t *testing.T) {
	repo := newMockRepo()
	repo.put(activeRecord())
	uc := newRegistry(repo, newMockCache(), nil)

	_, err := uc.Update(context.Background(), testID, nil, "did:example:mallory")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected UnauthorizedError, got %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	uc := newRegistry(newMockRepo(), newMockCache(), nil)
	_, err := uc.Update(context.Background(), testID, nil, "did:example:alice")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateReadYourWrites(t *testing.T) {
	repo := newMockRepo()
	repo.put(activeRecord(
		domain.ResolutionRecord{URI: "https://old.example", Status: domain.RecordActive, Quality: 1.0},
	))
	cache := newMockCache()
	registry := newRegistry(repo, cache, nil)
	resolver := NewResolverUsecase(repo, cache, ResolverOptions{})

	// Populate the cache with the pre-update outcome.
	before, err := resolver.Resolve(context.Background(), testID, domain.ResolveParams{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if before.Redirect.URI != "https://old.example" {
		t.Fatalf("unexpected pre-update target: %s", before.Redirect.URI)
	}

	_, err = registry.Update(context.Background(), testID, []domain.ResolutionRecord{
		{URI: "https://new.example", Status: domain.RecordActive, Quality: 1.0},
	}, "did:example:alice")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	after, err := resolver.Resolve(context.Background(), testID, domain.ResolveParams{})
	if err != nil {
		t.Fatalf("resolve after update failed: %v", err)
	}
	if after.Redirect.URI != "https://new.example" {
		t.Fatalf("resolve returned stale pre-update result: %s", after.Redirect.URI)
	}
}

func TestWithdrawAttachesTombstoneAndEvicts(t *testing.T) {
	repo := newMockRepo()
	repo.put(activeRecord(
		domain.ResolutionRecord{URI: "https://t.example", Status: domain.RecordActive, Quality: 1.0},
	))
	cache := newMockCache()
	pub := &mockPublisher{}
	uc := newRegistry(repo, cache, pub)

	err := uc.Withdraw(context.Background(), testID, "owner request", "admin@example.org", "did:example:alice")
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	saved := repo.records[testID]
	if saved.Status != domain.StatusWithdrawn {
		t.Fatalf("expected withdrawn status, got %s", saved.Status)
	}
	if saved.Tombstone == nil || saved.Tombstone.Reason != "owner request" {
		t.Fatalf("tombstone not attached: %+v", saved.Tombstone)
	}
	if saved.Tombstone.Contact != "admin@example.org" {
		t.Fatalf("tombstone contact missing")
	}
	if len(cache.evicted) != 1 {
		t.Fatalf("expected cache eviction")
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventWithdraw {
		t.Fatalf("expected withdraw event, got %+v", pub.events)
	}
}

func TestWithdrawThenResolveFailsWithdrawn(t *testing.T) {
	repo := newMockRepo()
	repo.put(activeRecord(
		domain.ResolutionRecord{URI: "https://t.example", Status: domain.RecordActive, Quality: 1.0},
	))
	cache := newMockCache()
	registry := newRegistry(repo, cache, nil)
	resolver := NewResolverUsecase(repo, cache, ResolverOptions{})

	if err := registry.Withdraw(context.Background(), testID, "owner request", "", "did:example:alice"); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	_, err := resolver.Resolve(context.Background(), testID, domain.ResolveParams{})
	var withdrawn domain.WithdrawnError
	if !errors.As(err, &withdrawn) {
		t.Fatalf("expected WithdrawnError, got %v", err)
	}
	if withdrawn.Tombstone.Reason != "owner request" {
		t.Fatalf("expected tombstone reason, got %q", withdrawn.Tombstone.Reason)
	}
}

func TestWithdrawIsTerminal(t *testing.T) {
	repo := newMockRepo()
	repo.put(activeRecord())
	uc := newRegistry(repo, newMockCache(), nil)

	if err := uc.Withdraw(context.Background(), testID, "first", "", "did:example:alice"); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	// A withdrawn record is no longer an active record, so further
	// mutations observe not-found.
	err := uc.Withdraw(context.Background(), testID, "second", "", "did:example:alice")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFoundError on second withdraw, got %v", err)
	}
}

func TestGetByIssuerAndStats(t *testing.T) {
	repo := newMockRepo()
	rec := activeRecord()
	repo.put(rec)
	other := activeRecord()
	other.ID = strings.Repeat("f", 32)
	other.Issuer = "did:example:bob"
	other.Status = domain.StatusWithdrawn
	repo.put(other)

	uc := newRegistry(repo, newMockCache(), nil)

	mine, err := uc.GetByIssuer(context.Background(), "did:example:alice")
	if err != nil || len(mine) != 1 {
		t.Fatalf("expected one record for alice, got %v %v", mine, err)
	}

	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Active != 1 || stats.Withdrawn != 1 || stats.Total != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRegisterTimestampsAreUTC(t *testing.T) {
	uc := newRegistry(newMockRepo(), newMockCache(), nil)
	resp, err := uc.Register(context.Background(), domain.RegistrationRequest{
		TargetURI: "https://example.org/r",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if resp.Created.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps")
	}
}
