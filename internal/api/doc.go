// Package api contains the HTTP handlers for the TaskLoop API. Handlers
// decode and validate requests, delegate to the service layer, and map
// service errors onto HTTP status codes without leaking internal detail.
package api
