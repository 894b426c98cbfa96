// Package service contains the command-side business logic: user accounts,
// the service request lifecycle, and ratings. Services own the state machine
// checks and write both their state change and the resulting lifecycle event
// to the outbox inside one transaction; the relay moves outbox rows to the
// broker, and the reactors in internal/reactor consume them.
package service
