package main

// Default limits for CLI commands.
const (
	DefaultListLimit   = 50
	DefaultSearchLimit = 20
)

// Output formats accepted by listing commands.
var validFormats = map[string]bool{"text": true, "json": true}
