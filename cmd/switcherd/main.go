package main

import (
	"os"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
