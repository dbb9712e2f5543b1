package main

import (
	"os"

	"github.com/ByLCY/inventario/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
