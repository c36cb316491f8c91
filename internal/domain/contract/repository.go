package contract

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import "context"

// Repository defines contract persistence. Items are written with the
// contract and removed with it. Lookups return nil, nil when the row is absent.
type Repository interface {
	Create(ctx context.Context, c *Contract) error
	// NextSequence returns the next value of the contract number sequence.
	NextSequence(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id int64) (*Contract, error)
	GetForUpdate(ctx context.Context, id int64) (*Contract, error)
	GetByQuoteID(ctx context.Context, quoteID int64) (*Contract, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Contract, error)
	UpdateStatus(ctx context.Context, c *Contract) error
}
