// Command exprc compiles and evaluates SQL expression trees against an
// indexed document store.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/exprc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
