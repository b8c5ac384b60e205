package main

import (
	"os"

	"tidytodo/cmd/tidytodo/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
