package repository

import (
	"database/sql"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func stringPtrToAny(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timePtrToAny(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullTimePtr returns the instant in UTC; lib/pq scans TIMESTAMPTZ in the
// session time zone.
func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
