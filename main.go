package main

import (
	"os"

	"github.com/tuannguyen/text2sql/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
