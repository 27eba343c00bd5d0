package main

import (
	"fmt"
	"os"

	"warda/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "warda:", err)
		os.Exit(1)
	}
}
