package domain

// ResultKind discriminates the two resolution outcomes.
type ResultKind string

const (
	KindRedirect ResultKind = "redirect"
	KindMetadata ResultKind = "metadata"
)

// ResolutionResult is a tagged union: exactly one of Redirect or
// Metadata is set, selected by Kind. The whole value is cached as an
// opaque JSON document after filtering and ranking.
type ResolutionResult struct {
	Kind     ResultKind      `json:"kind"`
	Redirect *RedirectResult `json:"redirect,omitempty"`
	Metadata *MetadataResult `json:"metadata,omitempty"`
}

// RedirectResult carries the best-ranked candidate's target.
type RedirectResult struct {
	URI       string  `json:"uri"`
	Quality   float64 `json:"quality"`
	Permanent bool    `json:"permanent"`
	CacheTTL  int     `json:"cacheTTL"`
}

// MetadataResult wraps the full record plus the ranked candidate list.
type MetadataResult struct {
	Record     LinkIDRecord       `json:"record"`
	Candidates []ResolutionRecord `json:"candidates"`
	ETag       string             `json:"etag"`
	CacheTTL   int                `json:"cacheTTL"`
}

// ResolveParams enumerates the recognized resolution options.
// Format filters candidates by media type, Language by BCP-47 prefix,
// Version is opaque passthrough, Metadata forces a MetadataResult.
type ResolveParams struct {
	Format   string `json:"format,omitempty"`
	Language string `json:"language,omitempty"`
	Version  string `json:"version,omitempty"`
	Metadata bool   `json:"metadata,omitempty"`
}
