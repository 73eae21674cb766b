package main

import (
	"os"

	"github.com/ShashankBhutiya/TallyAI/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
