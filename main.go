package main

import (
	"os"

	"github.com/tanpawarit/portfolio-agent/cmd"
	_ "github.com/tanpawarit/portfolio-agent/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
