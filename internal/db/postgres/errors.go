package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE codes classified by the repositories
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// sqlState extracts the SQLSTATE from either supported driver's error type
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return sqlState(err) == codeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return sqlState(err) == codeForeignKeyViolation
}

// uuidArray encodes ids for `= ANY($n::uuid[])`. The array literal from pq.StringArray
// is sent as a text parameter by both lib/pq and pgx.
func uuidArray(ids []string) any {
	v, _ := pq.StringArray(ids).Value()
	return v
}

// validUUIDs drops ids that would make the uuid cast fail
func validUUIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
