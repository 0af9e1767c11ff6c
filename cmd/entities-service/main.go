package main

import (
	"os"

	"github.com/onto-forge/entities-service/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
