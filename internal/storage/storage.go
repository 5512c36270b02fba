// Package storage defines the Storage interface, the contract any
// relational backend must satisfy. Handlers depend only on this
// interface; sqlite and mysql provide the concrete implementations and
// tests pass in fakes.
package storage

import (
	"context"

	"github.com/aanand-mishra/schools-api/internal/types"
)

// Storage is the database contract. Records are only ever created and
// listed; nothing updates or deletes them.
type Storage interface {
	// CreateSchool inserts a record and returns the id assigned by the
	// database. The ID field of the argument is ignored.
	CreateSchool(ctx context.Context, school types.School) (int64, error)

	// GetSchools returns every record, newest first. It returns an empty
	// slice (not nil) when the table is empty.
	GetSchools(ctx context.Context) ([]types.School, error)
}
