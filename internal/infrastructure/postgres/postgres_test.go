package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		want    string
		wantErr bool
	}{
		{"postgres scheme", "postgres://u:p@localhost:5432/b2b?sslmode=disable", "pgx5://u:p@localhost:5432/b2b?sslmode=disable", false},
		{"postgresql scheme", "postgresql://localhost/b2b", "pgx5://localhost/b2b", false},
		{"already pgx5", "pgx5://localhost/b2b", "pgx5://localhost/b2b", false},
		{"keyword dsn", "host=localhost dbname=b2b", "", true},
		{"mysql", "mysql://localhost/b2b", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := migrateURL(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		code string
		want apperr.Kind
	}{
		{pgerrcode.UniqueViolation, apperr.KindInvalidState},
		{pgerrcode.ForeignKeyViolation, apperr.KindNotFound},
		{pgerrcode.CheckViolation, apperr.KindValidation},
		{pgerrcode.NumericValueOutOfRange, apperr.KindValidation},
		{pgerrcode.SerializationFailure, apperr.KindInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := translate("contract", &pgconn.PgError{Code: tt.code})
			assert.Equal(t, tt.want, apperr.KindOf(err))
			var pgErr *pgconn.PgError
			assert.True(t, errors.As(err, &pgErr))
		})
	}

	plain := errors.New("connection reset")
	assert.Same(t, plain, translate("rfq", plain))
	assert.Nil(t, translate("rfq", nil))
}

func TestQueryBuilding(t *testing.T) {
	query := "SELECT id FROM quotes"
	query += addWhere(query) + " status=$" + itoa(1)
	query += addWhere(query) + " rfq_id=$" + itoa(2)
	query, args := paginate(query, []interface{}{"sent", int64(4)}, 3, 20, 40)

	assert.Equal(t, "SELECT id FROM quotes WHERE status=$1 AND rfq_id=$2 ORDER BY id DESC LIMIT $3 OFFSET $4", query)
	assert.Equal(t, []interface{}{"sent", int64(4), 20, 40}, args)
}

func TestNullJSON(t *testing.T) {
	assert.Nil(t, nullJSON(nil))
	assert.Nil(t, nullJSON([]byte{}))
	assert.Equal(t, []byte(`{"a":1}`), nullJSON([]byte(`{"a":1}`)))
}
