package main

import (
	"os"

	"github.com/bianoble/repoforge/cmd/repoforge/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
