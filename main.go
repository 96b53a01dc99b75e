package main

import (
	"os"

	"github.com/sadopc/willard/internal/commands"
)

func main() {
	os.Exit(commands.Execute())
}
