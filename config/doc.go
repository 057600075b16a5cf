// Package config assembles process configuration for ttlserve.
//
// Values come from three layers, later layers winning: Default, then
// TTLSERVE_* environment variables (LoadEnv), then command-line flags
// (BindFlags followed by FlagSet.Parse). Environment values may reference
// other variables as ${NAME}; a reference to an unset variable is an error.
//
// Config is split into the per-package configs with Cache, Fanout, Server
// and Observe.
package config
