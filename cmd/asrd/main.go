// Command asrd serves local speech-to-text over HTTP for a desktop client.
package main

import (
	"fmt"
	"os"
)

// Set at build time: -ldflags "-X main.Version=... -X main.Commit=..."
var (
	Version = "dev"
	Commit  = ""
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "asrd:", err)
		os.Exit(1)
	}
}
