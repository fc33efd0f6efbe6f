package main

import (
	"os"

	"github.com/ougirez/hvac-catalog/internal/pkg/logger"
)

func main() {
	defer logger.Sync()

	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
