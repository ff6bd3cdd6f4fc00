package core

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBExecutor is implemented by both *sqlx.DB and *sqlx.Tx.
type DBExecutor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AllowedOrderings drops the orderings on fields that are not in `fields`.
func AllowedOrderings(ords []DBOrdering, fields ...string) []DBOrdering {
	allowed := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}
	filtered := make([]DBOrdering, 0, len(ords))
	for _, ord := range ords {
		if _, ok := allowed[ord.Field]; ok {
			filtered = append(filtered, ord)
		}
	}
	return filtered
}
