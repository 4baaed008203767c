package main

import (
	"os"

	"github.com/chaos-io/bgswap/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	os.Exit(cli.Execute())
}
