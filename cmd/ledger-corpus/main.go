package main

import (
	"os"

	"github.com/bianoble/ledger-corpus/cmd/ledger-corpus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
