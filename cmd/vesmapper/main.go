package main

import (
	"os"

	"github.com/solatis/vesmapper/cmd/vesmapper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
