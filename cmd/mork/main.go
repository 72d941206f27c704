// Command mork reads Mozilla Mork address books.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mork/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
