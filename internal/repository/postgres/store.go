// Package postgres implements the campaign store against PostgreSQL.
//
// Every campaign-scoped query carries organization_id as a mandatory
// predicate; rows belonging to another organization are unreachable
// through this package.
package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// Store provides durable access to campaigns, recipients, members, and
// tracking events. It implements delivery.Repository, audience's
// MemberLister, token.Resolver, and the tracking event store.
type Store struct {
	db *sql.DB
}

// New creates a Store over an open database handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for components that need one, such
// as the advisory-lock fallback.
func (s *Store) DB() *sql.DB { return s.db }

// Open connects to PostgreSQL and returns a ready Store.
func Open(url string, maxOpen, maxIdle int) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return New(db), nil
}
