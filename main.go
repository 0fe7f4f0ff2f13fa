package main

import (
	"os"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
