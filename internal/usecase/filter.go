package usecase

import (
	"strings"
	"time"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
)

// formatMediaTypes maps short format parameters to their canonical
// media types. Unknown format strings pass through literally.
var formatMediaTypes = map[string]string{
	"pdf":  "application/pdf",
	"html": "text/html",
	"json": "application/json",
	"xml":  "application/xml",
	"txt":  "text/plain",
}

// CanonicalMediaType resolves a format parameter to a media type.
func CanonicalMediaType(format string) string {
	if mt, ok := formatMediaTypes[strings.ToLower(format)]; ok {
		return mt
	}
	return format
}

// FilterCandidates reduces a record's target list to the candidates
// eligible for the current request. Pure function.
func FilterCandidates(records []domain.ResolutionRecord, params domain.ResolveParams, now time.Time) []domain.ResolutionRecord {
	eligible := make([]domain.ResolutionRecord, 0, len(records))
	for _, r := range records {
		if r.Status != domain.RecordActive {
			continue
		}
		if r.ValidFrom != nil && r.ValidFrom.After(now) {
			continue
		}
		if r.ValidUntil != nil && r.ValidUntil.Before(now) {
			continue
		}
		if params.Format != "" && !strings.EqualFold(r.MediaType, CanonicalMediaType(params.Format)) {
			continue
		}
		if params.Language != "" && !matchesLanguage(r.Language, params.Language) {
			continue
		}
		eligible = append(eligible, r)
	}
	return eligible
}

// matchesLanguage allows a bare primary tag to match regional
// variants, e.g. "en" matches "en-US".
func matchesLanguage(candidate, requested string) bool {
	c := strings.ToLower(candidate)
	q := strings.ToLower(requested)
	if c == q {
		return true
	}
	return strings.HasPrefix(c, q+"-")
}
