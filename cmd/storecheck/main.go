// Command storecheck drives storefront purchase flows and checks them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/storecheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
