// internal/repository/postgres/errors.go
package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolation     pq.ErrorCode = "23505"
	foreignKeyViolation pq.ErrorCode = "23503"
	numericOverflow     pq.ErrorCode = "22003"
)

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// isForeignKeyViolation reports a write that references a row that does not exist,
// e.g. an account for a user id the ledger has never stored.
func isForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolation)
}

func isNumericOverflow(err error) bool {
	return hasCode(err, numericOverflow)
}
