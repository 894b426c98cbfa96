// Package postgres contains the PostgreSQL implementations of the store
// interfaces defined in internal/store, plus the event-plumbing stores
// (outbox, consumer cursors, processed-event receipts) used by
// internal/events. All implementations accept a store.DBTX so they work
// identically against a *sql.DB and a *sql.Tx.
package postgres
