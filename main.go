package main

import (
	"os"

	"github.com/picatz/dohgate/internal/cli"
)

var version = "dev/unknown"

func main() {
	cli.CommandRoot.Version = version
	if err := cli.CommandRoot.Execute(); err != nil {
		os.Exit(1)
	}
}
