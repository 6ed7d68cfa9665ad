// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// turns command-line flags into a validated app.Config.
package cli
