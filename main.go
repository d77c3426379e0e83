// ./main.go
package main

import (
	"github.com/18999029117-create/weaver/cmd"
)

// main is the entry point for the Weaver CLI.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
