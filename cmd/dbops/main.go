package main

import (
	"os"

	"db-ops-toolkit/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.NewRootCommand(), os.Args[1:], os.Stderr))
}
