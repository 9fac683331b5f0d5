package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func isCheckViolation(err error) bool {
	return pgCode(err) == codeCheckViolation
}

// mapTxError превращает конфликты сериализации и взаимоблокировки в ErrVersionConflict,
// чтобы сервисы повторили единицу работы.
func mapTxError(err error) error {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return errors.Join(domain.ErrVersionConflict, err)
	}
	return err
}
