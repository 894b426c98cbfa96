// Package store defines the persistence interfaces for the marketplace
// entities, the shared sentinel errors, and the transaction helper used by
// the service layer. Implementations live in internal/platform/postgres.
package store
