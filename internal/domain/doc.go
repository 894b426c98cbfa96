// Package domain contains the core business entities of the marketplace:
// users, service requests, provider assignments, ratings, payments, and
// notifications. Entities validate themselves on construction, and the
// request/assignment lifecycle is governed by explicit transition tables
// rather than by storage constraints.
package domain
