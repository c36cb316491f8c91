package txn

import "context"

// Manager runs fn inside a single transaction. Repositories called with the
// ctx passed to fn take part in that transaction. A non-nil error from fn
// rolls everything back.
type Manager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
