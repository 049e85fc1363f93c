package main

import (
	"os"

	"github.com/ariel-frischer/pipecheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
