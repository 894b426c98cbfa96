// Package events implements the cross-service event choreography layer:
// the envelope contract shared by every stream, the publisher and
// transactional outbox used to announce local state changes, and the
// consumer loop that tails streams with durable cursors and idempotent
// delivery.
//
// Streams are named, append-only, totally ordered sequences of envelopes.
// Delivery is at-least-once: consumers deduplicate by event ID, so handlers
// observe each logical occurrence exactly once as long as their receipt
// window outlives the broker's redelivery horizon. Ordering is guaranteed
// within a stream only; handlers must not assume cross-stream causality.
package events
