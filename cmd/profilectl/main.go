// Command profilectl manages CueDeck profiles offline.
//
// It works directly on the user data directory, so it should not be used
// while the app is running.
package main

import (
	"os"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fail(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
