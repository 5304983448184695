package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithinOrg is the tenant scope guard. Every query a service issues against
// tenant-owned tables chains this scope so a row from another organization can
// never be selected or matched for update. Callers that address a foreign
// tenant's row simply get gorm.ErrRecordNotFound.
//
// The filter is qualified with the statement's own table; joined tables also
// carry an org_id column and a bare reference would be ambiguous.
func WithinOrg(orgID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: "org_id"},
			Value:  orgID,
		})
	}
}
