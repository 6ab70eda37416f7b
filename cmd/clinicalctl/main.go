// Command clinicalctl runs the clinical pipeline and its maintenance tasks from the terminal.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
