package models

import (
	"time"
)

// LinkIDRecord is the persistence shape of a registration. The
// candidate list, policy, tombstone, and alternates are stored as
// JSONB documents; the record is addressed and indexed by id, status,
// and issuer only.
type LinkIDRecord struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	Status     string    `json:"status" gorm:"type:text;index;not null"`
	Issuer     string    `json:"issuer" gorm:"type:text;index;not null"`
	Created    time.Time `json:"created" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	Updated    time.Time `json:"updated" gorm:"type:timestamp with time zone;not null"`
	Records    string    `json:"records" gorm:"type:jsonb;not null;default:'[]'"`
	Alternates string    `json:"alternates" gorm:"type:jsonb"`
	Policy     string    `json:"policy" gorm:"type:jsonb"`
	Tombstone  string    `json:"tombstone" gorm:"type:jsonb"`
	Metadata   string    `json:"metadata" gorm:"type:jsonb"`
}
