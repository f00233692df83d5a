// Package delivery implements the campaign delivery orchestrator.
//
// The service owns the campaign state machine (draft → sending →
// sent/failed), fans a send out to the transport one recipient at a
// time (or across a bounded worker pool), and rolls per-recipient
// outcomes up into the campaign's final status. It depends on the
// repository interface defined in this package; the PostgreSQL
// implementation lives in repository/postgres.
package delivery
