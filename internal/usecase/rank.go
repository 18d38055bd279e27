package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
)

// RankCandidates orders eligible candidates by quality, then
// freshness, then exact language match. The sort is stable so ties
// preserve input order. Pure function.
func RankCandidates(candidates []domain.ResolutionRecord, params domain.ResolveParams) []domain.ResolutionRecord {
	ranked := make([]domain.ResolutionRecord, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		if a.Quality != b.Quality {
			return a.Quality > b.Quality
		}

		at, aok := freshness(a)
		bt, bok := freshness(b)
		switch {
		case aok && bok:
			if !at.Equal(bt) {
				return at.After(bt)
			}
		case aok != bok:
			return aok
		}

		// Language-exact bonus, only reachable on a quality tie.
		if params.Language != "" {
			ae := strings.EqualFold(a.Language, params.Language)
			be := strings.EqualFold(b.Language, params.Language)
			if ae != be {
				return ae
			}
		}

		return false
	})

	return ranked
}

// freshness picks the candidate's recency key: lastModified, falling
// back to validFrom.
func freshness(r domain.ResolutionRecord) (time.Time, bool) {
	if r.LastModified != nil {
		return *r.LastModified, true
	}
	if r.ValidFrom != nil {
		return *r.ValidFrom, true
	}
	return time.Time{}, false
}
