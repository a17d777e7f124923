// Package logging assembles the structured slog loggers used across
// labelclean commands.
//
// It owns the console/JSON handler selection, centralizes level and output
// plumbing, and prunes old log files per the configured retention window.
// Prefer these constructors over hand-rolled slog setup so every component
// emits log lines with the same shape.
package logging
