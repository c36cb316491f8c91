package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
)

const quoteColumns = `id, rfq_id, conversation_id, seller_id, buyer_id, total_price, seller_message, status, created_at, updated_at, deleted_at`

// QuoteRepository implements quote.Repository.
type QuoteRepository struct {
	pool *pgxpool.Pool
}

func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

var _ quote.Repository = (*QuoteRepository)(nil)

func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	db := conn(ctx, r.pool)
	err := db.QueryRow(ctx, `
		INSERT INTO quotes
		(rfq_id, conversation_id, seller_id, buyer_id, total_price, seller_message, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, q.RFQID, q.ConversationID, q.SellerID, q.BuyerID, q.TotalPrice, q.SellerMessage, q.Status, q.CreatedAt, q.UpdatedAt).Scan(&q.ID)
	if err != nil {
		return translate("quote", err)
	}
	return insertQuoteItems(ctx, db, q.ID, q.Items)
}

func (r *QuoteRepository) GetByID(ctx context.Context, id int64) (*quote.Quote, error) {
	return r.get(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id=$1`, id)
}

func (r *QuoteRepository) GetForUpdate(ctx context.Context, id int64) (*quote.Quote, error) {
	return r.get(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id=$1 FOR UPDATE`, id)
}

func (r *QuoteRepository) get(ctx context.Context, query string, id int64) (*quote.Quote, error) {
	q, err := scanQuote(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil || q == nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*quote.Quote{q}); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QuoteRepository) List(ctx context.Context, filter quote.Filter, limit, offset int) ([]*quote.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes`
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
	if filter.RFQID != nil {
		query += addWhere(query) + " rfq_id=$" + itoa(idx)
		args = append(args, *filter.RFQID)
		idx++
	}
	if filter.ConversationID != nil {
		query += addWhere(query) + " conversation_id=$" + itoa(idx)
		args = append(args, *filter.ConversationID)
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
	out := make([]*quote.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, q)
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

func (r *QuoteRepository) Update(ctx context.Context, q *quote.Quote) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE quotes
		SET total_price=$1, seller_message=$2, status=$3, updated_at=$4, deleted_at=$5
		WHERE id=$6
	`, q.TotalPrice, q.SellerMessage, q.Status, q.UpdatedAt, q.DeletedAt, q.ID)
	return translate("quote", err)
}

// ReplaceItems deletes the stored items of quoteID and inserts items, writing
// the new ids back into the slice.
func (r *QuoteRepository) ReplaceItems(ctx context.Context, quoteID int64, items []quote.Item) error {
	db := conn(ctx, r.pool)
	if _, err := db.Exec(ctx, `DELETE FROM quote_items WHERE quote_id=$1`, quoteID); err != nil {
		return err
	}
	return insertQuoteItems(ctx, db, quoteID, items)
}

func insertQuoteItems(ctx context.Context, db querier, quoteID int64, items []quote.Item) error {
	for i := range items {
		it := &items[i]
		it.QuoteID = quoteID
		err := db.QueryRow(ctx, `
			INSERT INTO quote_items (quote_id, product_id, quantity, unit_price, note)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id
		`, quoteID, it.ProductID, it.Quantity, it.UnitPrice, it.Note).Scan(&it.ID)
		if err != nil {
			return translate("quote", err)
		}
	}
	return nil
}

func (r *QuoteRepository) loadItems(ctx context.Context, quotes []*quote.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	ids := make([]int64, len(quotes))
	byID := make(map[int64]*quote.Quote, len(quotes))
	for i, q := range quotes {
		ids[i] = q.ID
		q.Items = make([]quote.Item, 0)
		byID[q.ID] = q
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, quote_id, product_id, quantity, unit_price, note
		FROM quote_items WHERE quote_id = ANY($1) ORDER BY id ASC
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it quote.Item
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Note); err != nil {
			return err
		}
		if q, ok := byID[it.QuoteID]; ok {
			q.Items = append(q.Items, it)
		}
	}
	return rows.Err()
}

func scanQuote(row pgx.Row) (*quote.Quote, error) {
	var q quote.Quote
	err := row.Scan(&q.ID, &q.RFQID, &q.ConversationID, &q.SellerID, &q.BuyerID, &q.TotalPrice, &q.SellerMessage, &q.Status, &q.CreatedAt, &q.UpdatedAt, &q.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}
