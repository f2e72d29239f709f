// Package main provides the cleanse command-line tool.
package main

import (
	"os"

	"github.com/JonMunkholm/cleanse/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
