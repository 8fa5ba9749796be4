package subcontractors

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a row does not exist or was already reminded.
var ErrNotFound = errors.New("not found")

// Repo persists subcontractors and their insurance documents.
type Repo interface {
	// Upsert inserts s, or updates every mutable field of the row with the
	// same email, and returns the stored id.
	Upsert(ctx context.Context, s Subcontractor) (string, error)
	AddDocument(ctx context.Context, doc InsuranceDocument) error
	// ListDue returns unreminded documents expiring between from and to
	// inclusive, soonest first.
	ListDue(ctx context.Context, from, to time.Time) ([]DueDocument, error)
	// MarkReminded stamps reminded_at on a document that has none.
	MarkReminded(ctx context.Context, documentID string, at time.Time) error
}
