// main is the entry point for the relval CLI.
package main

import (
	"fmt"
	"os"

	"github.com/dmarten/relval/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
