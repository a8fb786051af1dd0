// Package config handles configuration loading, parsing, and validation
// from the environment and an optional config.yaml file. It provides
// type-safe access to the settings needed by the HTTP server, the database
// layer, the deadline sweeper and the optional Redis cache.
package config
