// Package config loads, validates, and normalizes jobwatch configuration.
//
// Configuration lives in a TOML file (default ~/.config/jobwatch/config.toml,
// or jobwatch.toml in the working directory). Load applies defaults, expands
// ~ in path fields, and rejects unusable values so the rest of the program
// never re-validates settings.
package config
