package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
)

const contractColumns = `id, contract_number, quote_id, buyer_id, seller_id, status, total_amount, currency, contract_date, estimated_delivery_date, shipping_address, billing_address, metadata, created_at, updated_at`

// ContractRepository implements contract.Repository.
type ContractRepository struct {
	pool *pgxpool.Pool
}

func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{pool: pool}
}

var _ contract.Repository = (*ContractRepository)(nil)

func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	db := conn(ctx, r.pool)
	err := db.QueryRow(ctx, `
		INSERT INTO contracts
		(contract_number, quote_id, buyer_id, seller_id, status, total_amount, currency, contract_date, estimated_delivery_date, shipping_address, billing_address, metadata, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`, c.Number, c.QuoteID, c.BuyerID, c.SellerID, c.Status, c.TotalAmount, c.Currency, c.ContractDate, c.EstimatedDeliveryDate, c.ShippingAddress, c.BillingAddress, nullJSON(c.Metadata), c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return translate("contract", err)
	}
	for i := range c.Items {
		it := &c.Items[i]
		it.ContractID = c.ID
		err := db.QueryRow(ctx, `
			INSERT INTO contract_items (contract_id, product_id, quantity, unit_price, total_price, specifications)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id
		`, c.ID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice, it.Specifications).Scan(&it.ID)
		if err != nil {
			return translate("contract", err)
		}
	}
	return nil
}

func (r *ContractRepository) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT nextval('contract_number_seq')`).Scan(&seq)
	return seq, err
}

func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*contract.Contract, error) {
	return r.get(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id=$1`, id)
}

func (r *ContractRepository) GetForUpdate(ctx context.Context, id int64) (*contract.Contract, error) {
	return r.get(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id=$1 FOR UPDATE`, id)
}

func (r *ContractRepository) GetByQuoteID(ctx context.Context, quoteID int64) (*contract.Contract, error) {
	return r.get(ctx, `SELECT `+contractColumns+` FROM contracts WHERE quote_id=$1`, quoteID)
}

func (r *ContractRepository) get(ctx context.Context, query string, arg int64) (*contract.Contract, error) {
	c, err := scanContract(conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil || c == nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*contract.Contract{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContractRepository) List(ctx context.Context, filter contract.Filter, limit, offset int) ([]*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
	args := []interface{}{}
	idx := 1
	if filter.Status != nil {
		query += " WHERE status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.QuoteID != nil {
		query += addWhere(query) + " quote_id=$" + itoa(idx)
		args = append(args, *filter.QuoteID)
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
	out := make([]*contract.Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus writes status, metadata and updated_at. Items are never rewritten.
func (r *ContractRepository) UpdateStatus(ctx context.Context, c *contract.Contract) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE contracts SET status=$1, metadata=$2, updated_at=$3 WHERE id=$4
	`, c.Status, nullJSON(c.Metadata), c.UpdatedAt, c.ID)
	return translate("contract", err)
}

func (r *ContractRepository) loadItems(ctx context.Context, contracts []*contract.Contract) error {
	if len(contracts) == 0 {
		return nil
	}
	ids := make([]int64, len(contracts))
	byID := make(map[int64]*contract.Contract, len(contracts))
	for i, c := range contracts {
		ids[i] = c.ID
		c.Items = make([]contract.Item, 0)
		byID[c.ID] = c
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, contract_id, product_id, quantity, unit_price, total_price, specifications
		FROM contract_items WHERE contract_id = ANY($1) ORDER BY id ASC
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it contract.Item
		if err := rows.Scan(&it.ID, &it.ContractID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Specifications); err != nil {
			return err
		}
		if c, ok := byID[it.ContractID]; ok {
			c.Items = append(c.Items, it)
		}
	}
	return rows.Err()
}

func scanContract(row pgx.Row) (*contract.Contract, error) {
	var c contract.Contract
	var metadata []byte
	err := row.Scan(&c.ID, &c.Number, &c.QuoteID, &c.BuyerID, &c.SellerID, &c.Status, &c.TotalAmount, &c.Currency, &c.ContractDate, &c.EstimatedDeliveryDate, &c.ShippingAddress, &c.BillingAddress, &metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(metadata) > 0 {
		c.Metadata = metadata
	}
	return &c, nil
}

// nullJSON keeps an empty document NULL instead of an invalid empty jsonb.
func nullJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data
}
