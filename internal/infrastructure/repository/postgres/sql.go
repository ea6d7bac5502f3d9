package postgres

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether err is a postgres unique violation
// on the named constraint. The unique indexes are the final arbiter for
// the at-most-once rules, so writes translate 23505 into the matching
// domain error instead of leaking it.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	if constraint == "" {
		return true
	}

	return pqErr.Constraint == constraint || strings.Contains(pqErr.Message, constraint)
}
