package domain

import "time"

// LinkIDRecord statuses.
const (
	StatusActive    = "active"
	StatusWithdrawn = "withdrawn"
	StatusPending   = "pending"
)

// ResolutionRecord statuses.
const (
	RecordActive     = "active"
	RecordInactive   = "inactive"
	RecordDeprecated = "deprecated"
)

// DefaultCacheTTL bounds a resolution-cache entry when the record
// carries no explicit policy. Seconds.
const DefaultCacheTTL = 3600

// LinkIDRecord is the unit of registration: one persistent identifier
// and its current set of resolution targets.
type LinkIDRecord struct {
	ID         string                `json:"id"`
	Status     string                `json:"status"`
	Issuer     string                `json:"issuer"`
	Created    time.Time             `json:"created"`
	Updated    time.Time             `json:"updated"`
	Records    []ResolutionRecord    `json:"records"`
	Alternates []AlternateIdentifier `json:"alternates,omitempty"`
	Policy     *ResolutionPolicy     `json:"policy,omitempty"`
	Tombstone  *Tombstone            `json:"tombstone,omitempty"`
	Metadata   map[string]any        `json:"metadata,omitempty"`
}

// CacheTTL returns the record's cache policy TTL, or DefaultCacheTTL
// when no policy is attached.
func (r *LinkIDRecord) CacheTTL() int {
	if r.Policy != nil && r.Policy.CacheTTL > 0 {
		return r.Policy.CacheTTL
	}
	return DefaultCacheTTL
}

// ResolutionRecord is one candidate target within a LinkIDRecord.
type ResolutionRecord struct {
	URI          string         `json:"uri"`
	Status       string         `json:"status"`
	MediaType    string         `json:"mediaType,omitempty"`
	Language     string         `json:"language,omitempty"`
	Quality      float64        `json:"quality,omitempty"`
	ValidFrom    *time.Time     `json:"validFrom,omitempty"`
	ValidUntil   *time.Time     `json:"validUntil,omitempty"`
	LastModified *time.Time     `json:"lastModified,omitempty"`
	Checksum     string         `json:"checksum,omitempty"`
	Size         int64          `json:"size,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ResolutionPolicy tunes per-record resolution behavior.
type ResolutionPolicy struct {
	CacheTTL int `json:"cacheTTL"`
}

// Tombstone explains a withdrawal. Present only on withdrawn records.
type Tombstone struct {
	WithdrawnAt time.Time `json:"withdrawnAt"`
	Reason      string    `json:"reason,omitempty"`
	Contact     string    `json:"contact,omitempty"`
}

// AlternateIdentifier points to the same resource in another PID
// system. Passthrough data, never resolved here.
type AlternateIdentifier struct {
	Scheme     string `json:"scheme"`
	Identifier string `json:"identifier"`
}

// RegistrationRequest seeds a new LinkIDRecord with one candidate.
type RegistrationRequest struct {
	TargetURI string         `json:"targetUri"`
	MediaType string         `json:"mediaType,omitempty"`
	Language  string         `json:"language,omitempty"`
	Issuer    string         `json:"issuer,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// RegistrationResponse is returned by register.
type RegistrationResponse struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Created     time.Time `json:"created"`
	ResolverURL string    `json:"resolver_url"`
}

// RegistryStats aggregates record counts by status.
type RegistryStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Withdrawn int64 `json:"withdrawn"`
}

// Event is published on every successful mutation.
type Event struct {
	Type      string    `json:"type"` // register, update, withdraw
	ID        string    `json:"id"`
	Issuer    string    `json:"issuer,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
