package main

import (
	"os"

	"github.com/endogen/rocketbot/internal/app"
)

func main() {
	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
