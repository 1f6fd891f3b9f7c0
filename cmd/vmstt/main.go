package main

import (
	"fmt"
	"os"

	"voicemail-stt/cmd/vmstt/cmd"
	"voicemail-stt/internal/config"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration warning: %v\n", err)
		// Continue execution - subcommands validate what they actually need
	}

	cmd.Execute()
}
