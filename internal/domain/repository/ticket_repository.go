// Package repository defines the persistence contracts of the domain layer.
// Implementations live under internal/infrastructure/persistence.
package repository

import (
	"context"
	"time"

	"github.com/logigrain/portauth/internal/domain/models"
)

// TicketRepository is the durable store behind the ticket cache. All mutations
// preserve the at-most-one-live-row-per-key invariant.
type TicketRepository interface {
	// FindByKey returns the row for the key, or a not_found error when no row
	// exists. Expiry is not evaluated here; the caller owns lazy eviction.
	FindByKey(ctx context.Context, key models.TicketKey) (*models.Ticket, error)

	// Replace atomically deletes every row for the ticket's key and inserts
	// the ticket, in a single transaction.
	Replace(ctx context.Context, ticket *models.Ticket) error

	// DeleteByKey removes all rows for the key, returning how many went away.
	DeleteByKey(ctx context.Context, key models.TicketKey) (int64, error)

	// DeleteExpired removes every row whose expiration is at or before now.
	// Lazy per-lookup eviction remains the contract; this is the optional
	// background sweep.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// CountByKey returns the number of rows stored for the key.
	CountByKey(ctx context.Context, key models.TicketKey) (int64, error)
}
