package rfq

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import "context"

// Repository defines RFQ persistence. Lookups return nil, nil when the row is absent.
type Repository interface {
	Create(ctx context.Context, r *RFQ) error
	GetByID(ctx context.Context, id int64) (*RFQ, error)
	// GetForUpdate reads the row and locks it for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int64) (*RFQ, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*RFQ, error)
	Update(ctx context.Context, r *RFQ) error
}
