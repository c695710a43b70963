// Package commands defines the mdoc-session CLI.
//
// Commands
//
//   - derive   Print SKReader and SKDevice for a shared secret and salt
//   - seal     Seal hex plaintexts in order, one SessionData per line
//   - open     Open hex SessionData messages in order, one plaintext per line
//   - serve    Run a holder that echoes each request over TCP
//   - connect  Run a reader that sends each argument to a holder over TCP
//
// # Implementation
//
// Session inputs are shared persistent flags on the root command. Each
// subcommand builds its own session from them, so seal and open always start
// from counter 1. derive is the only command that prints key material.
package commands
