// Command coinboard is a terminal cryptocurrency dashboard and its backend.
package main

import (
	"fmt"
	"os"

	"github.com/coinboard/coinboard/internal/cli"
	"github.com/coinboard/coinboard/pkg/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := cli.NewRootCmd(version.GetVersion())
	return root.Execute()
}
