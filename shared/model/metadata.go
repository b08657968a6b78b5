package model

import (
	"stayfinder/shared/timezone"
	"time"
)

// Metadata is the audit block every table carries.
type Metadata struct {
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	ModifiedAt time.Time `db:"modified_at" json:"modified_at"`
	CreatedBy  string    `db:"created_by"  json:"created_by"`
	ModifiedBy string    `db:"modified_by" json:"modified_by"`
}

// NewMetadata stamps a freshly created row as made by actor, now.
func NewMetadata(actor string) Metadata {
	now := timezone.Now()

	return Metadata{CreatedAt: now, ModifiedAt: now, CreatedBy: actor, ModifiedBy: actor}
}

// Touch records a modification by actor.
func (m *Metadata) Touch(actor string) {
	m.ModifiedAt = timezone.Now()
	m.ModifiedBy = actor
}
