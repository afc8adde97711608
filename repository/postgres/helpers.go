package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/taskshare/domain"
)

const uniqueViolation = "23505"

func marshalMetadata(m *domain.Metadata) []byte {
	if m.Len() == 0 {
		return nil
	}
	b, err := m.MarshalJSON()
	if err != nil {
		return nil
	}
	return b
}

func nullDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const defaultListLimit = 50

// listLimit applies the caller's limit as is; a non-positive one means the
// default page size.
func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
