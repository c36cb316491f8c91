package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
)

// translate maps constraint violations onto domain error kinds. Other errors
// pass through untouched.
func translate(entity string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return apperr.Wrap(apperr.KindInvalidState, entity, err)
	case pgerrcode.ForeignKeyViolation:
		return apperr.Wrap(apperr.KindNotFound, entity, err)
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.NumericValueOutOfRange:
		return apperr.Wrap(apperr.KindValidation, entity, err)
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return apperr.Wrap(apperr.KindInvalidState, entity, err)
	}
	return err
}
