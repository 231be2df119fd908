package main

import (
	"fmt"
	"os"

	"github.com/andreyvit/dwarfdb/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dwarfdb:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
