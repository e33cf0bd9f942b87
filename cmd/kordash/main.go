package main

import (
	"os"

	"kordash/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
