// Package config defines the application's configuration model and loads it
// from environment variables and optional config files. Configuration is
// grouped by concern (server, database, redis, auth, events) and validated
// after loading so the rest of the application can assume a well-formed
// Config.
package config
