package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times fn as op, written "<table>.<action>" (e.g. "food.create").
// pgx.ErrNoRows is how lookups report a missing row, so it counts as ok.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	table, action, found := strings.Cut(op, ".")
	if !found {
		table, action = "", op
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start).Seconds()

	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		p.DbErrorsTotal.WithLabelValues(table, action, classifyDBErr(err)).Inc()
		p.DbQueryDuration.WithLabelValues(table, action, "error").Observe(elapsed)
		return err
	}

	p.DbQueryDuration.WithLabelValues(table, action, "ok").Observe(elapsed)
	return err
}

var pgErrorClasses = map[string]string{
	"23505": "unique_violation",
	"22P02": "invalid_text_representation",
	"42P01": "undefined_table",
	"53300": "too_many_connections",
	"57014": "query_canceled",
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if class, ok := pgErrorClasses[pgErr.Code]; ok {
			return class
		}
		return "pg_" + pgErr.Code
	}

	var connectErr *pgconn.ConnectError
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return "timeout"
	case errors.As(err, &connectErr):
		return "connection"
	default:
		return "unknown"
	}
}
