package main

import (
	"os"

	"github.com/cwbudde/go-angelscript/cmd/ascript/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
