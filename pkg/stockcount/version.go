// Package stockcount holds build metadata for the stockcount module.
package stockcount

// Version is the release version reported by the CLI.
const Version = "0.1.0"
