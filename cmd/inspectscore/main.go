// Command inspectscore runs the inspection scoring pipeline: aggregating
// raw violation exports into per-inspection datasets, searching for the
// best regression model under a time budget, and serving evaluations and
// single predictions from the saved artifact.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
