// mdoc-session is a developer tool for ISO/IEC 18013-5 secure sessions.
//
// It derives session keys, seals and opens SessionData messages from hex
// inputs, and runs a reader and a holder against each other over TCP.
//
// Usage:
//
//	mdoc-session derive  --secret HEX --salt HEX [--length 16]
//	mdoc-session seal    --secret HEX --salt HEX [--role reader|endpoint] HEX...
//	mdoc-session open    --secret HEX --salt HEX [--role reader|endpoint] HEX...
//	mdoc-session serve   --secret HEX --salt HEX [--listen 127.0.0.1:18013]
//	mdoc-session connect --secret HEX --salt HEX [--addr 127.0.0.1:18013] TEXT...
package main

import (
	"os"

	"github.com/backkem/mdocsession/cmd/mdoc-session/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
