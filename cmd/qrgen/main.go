package main

import (
	"os"

	"github.com/Makepad-fr/qrgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
