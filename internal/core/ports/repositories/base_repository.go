package repositories

import "context"

// TransactionManager runs a unit of work in one serializable database transaction.
// The transaction travels in the context passed to fn; repositories called with that
// context join it. A nested call reuses the outer transaction.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
