package main

import (
	"github.com/LeJamon/xrpl-ledger-watch/internal/cli"
)

func main() {
	cli.Execute()
}
