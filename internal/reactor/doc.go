// Package reactor contains the event-driven side of the application: small
// components that subscribe to lifecycle streams and maintain downstream
// state. Each reactor registers its handlers on a named consumer with its
// own durable cursor and receipt set, so reactors progress independently
// and survive restarts without reapplying events.
//
// Reactors must tolerate redelivery: the consumer's receipts filter exact
// duplicates by event ID, and the handlers themselves avoid non-idempotent
// writes where the payload allows it.
package reactor
