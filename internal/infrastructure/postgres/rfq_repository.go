package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
)

const rfqColumns = `id, buyer_id, seller_id, product_id, quantity, shipping_country, shipping_address, message, status, created_at, updated_at, deleted_at`

// RFQRepository implements rfq.Repository.
type RFQRepository struct {
	pool *pgxpool.Pool
}

func NewRFQRepository(pool *pgxpool.Pool) *RFQRepository {
	return &RFQRepository{pool: pool}
}

var _ rfq.Repository = (*RFQRepository)(nil)

func (r *RFQRepository) Create(ctx context.Context, q *rfq.RFQ) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO rfqs
		(buyer_id, seller_id, product_id, quantity, shipping_country, shipping_address, message, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, q.BuyerID, q.SellerID, q.ProductID, q.Quantity, q.ShippingCountry, q.ShippingAddress, q.Message, q.Status, q.CreatedAt, q.UpdatedAt).Scan(&q.ID)
	return translate("rfq", err)
}

func (r *RFQRepository) GetByID(ctx context.Context, id int64) (*rfq.RFQ, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+rfqColumns+` FROM rfqs WHERE id=$1`, id)
	return scanRFQ(row)
}

func (r *RFQRepository) GetForUpdate(ctx context.Context, id int64) (*rfq.RFQ, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+rfqColumns+` FROM rfqs WHERE id=$1 FOR UPDATE`, id)
	return scanRFQ(row)
}

func (r *RFQRepository) List(ctx context.Context, filter rfq.Filter, limit, offset int) ([]*rfq.RFQ, error) {
	query := `SELECT ` + rfqColumns + ` FROM rfqs`
	args := []interface{}{}
	idx := 1
	if !filter.IncludeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.BuyerID != nil {
		query += addWhere(query) + " buyer_id=$" + itoa(idx)
		args = append(args, *filter.BuyerID)
		idx++
	}
	if filter.SellerID != nil {
		query += addWhere(query) + " seller_id=$" + itoa(idx)
		args = append(args, *filter.SellerID)
		idx++
	}
	if filter.PartyID != nil {
		query += addWhere(query) + " (buyer_id=$" + itoa(idx) + " OR seller_id=$" + itoa(idx) + ")"
		args = append(args, *filter.PartyID)
		idx++
	}
	query, args = paginate(query, args, idx, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*rfq.RFQ, 0)
	for rows.Next() {
		q, err := scanRFQ(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *RFQRepository) Update(ctx context.Context, q *rfq.RFQ) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE rfqs
		SET quantity=$1, shipping_country=$2, shipping_address=$3, message=$4, status=$5, updated_at=$6, deleted_at=$7
		WHERE id=$8
	`, q.Quantity, q.ShippingCountry, q.ShippingAddress, q.Message, q.Status, q.UpdatedAt, q.DeletedAt, q.ID)
	return translate("rfq", err)
}

func scanRFQ(row pgx.Row) (*rfq.RFQ, error) {
	var q rfq.RFQ
	err := row.Scan(&q.ID, &q.BuyerID, &q.SellerID, &q.ProductID, &q.Quantity, &q.ShippingCountry, &q.ShippingAddress, &q.Message, &q.Status, &q.CreatedAt, &q.UpdatedAt, &q.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}
