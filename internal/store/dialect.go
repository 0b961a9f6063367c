package store

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// Dialect captures the differences between the SQL backends. Queries are
// written with ? placeholders and an optional {lock} marker.
type Dialect struct {
	Name string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
	// rowLock replaces {lock} in SELECTs that must lock what they read.
	rowLock string
	unique  func(err error) bool
}

var Postgres = Dialect{
	Name:     "postgres",
	numbered: true,
	rowLock:  " FOR UPDATE",
	unique: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
}

// SQLite has no row locks; writers serialize on the database lock taken by
// BEGIN IMMEDIATE (see NewSQLite).
var SQLite = Dialect{
	Name: "sqlite",
	unique: func(err error) bool {
		return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
	},
}

// IsUnique reports whether err is a unique-constraint violation.
func (d Dialect) IsUnique(err error) bool {
	return d.unique != nil && d.unique(err)
}

// Rebind rewrites ? placeholders for the dialect and expands {lock}.
func (d Dialect) Rebind(query string) string {
	query = strings.ReplaceAll(query, "{lock}", d.rowLock)
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
