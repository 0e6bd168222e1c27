// Package history keeps a record of completed verifications for the
// console's history view.
package history

import (
	"context"

	"pkdconsole/internal/verification/models"
)

// Store is the history persistence seam.
type Store interface {
	Record(ctx context.Context, entry models.HistoryEntry) error
	// List returns up to limit entries, most recent first.
	List(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}
