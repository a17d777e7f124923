// Package config loads, normalizes, and validates labelclean configuration.
// Configuration comes from a TOML file; every path field is expanded to an
// absolute path during load so the rest of the program never sees "~" or
// relative paths.
package config
