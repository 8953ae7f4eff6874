package port

import (
	"context"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

type PatronDirectory interface {
	// FindByID returns nil without error when no patron has the given ID.
	FindByID(ctx context.Context, patronID string) (*domain.Patron, error)
}
