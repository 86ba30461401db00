package main

import (
	"os"

	"github.com/Avinashhmavii/TIME-AI-Coach/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
