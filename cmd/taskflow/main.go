package main

import (
	"os"

	"github.com/sufyan2618/project-management/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
