// Package main provides the umamidb command.
package main

import (
	"os"

	"github.com/Framian/umami/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
