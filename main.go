// The main package for the foiarchive executable.
package main

import (
	"github.com/mwhitaker/foia-archive/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
