package quote

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import "context"

// Repository defines quote persistence. Items are loaded with their quote.
// Lookups return nil, nil when the row is absent.
type Repository interface {
	// Create inserts the quote and its items.
	Create(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, id int64) (*Quote, error)
	GetForUpdate(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Quote, error)
	// Update writes the quote's own columns.
	Update(ctx context.Context, q *Quote) error
	ReplaceItems(ctx context.Context, quoteID int64, items []Item) error
}
