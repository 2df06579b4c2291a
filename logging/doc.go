// Package logging provides a tiny abstraction over structured loggers so the
// rest of the module can depend on a minimal interface (Logger) while callers
// plug in slog, zerolog or anything else with the same shape.
package logging
