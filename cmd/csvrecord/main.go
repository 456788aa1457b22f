package main

import (
	"os"

	"github.com/oleg578/csvrecord/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
