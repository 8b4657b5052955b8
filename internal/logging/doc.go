// Package logging configures slog output for the daemon and CLI.
//
// Console format renders one line per record with a leading component prefix;
// JSON format uses slog's JSON handler with normalized key names. All
// components attach a "component" attribute via NewComponentLogger so console
// output stays scannable.
package logging
