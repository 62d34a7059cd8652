package main

import (
	"os"

	"github.com/sharetube/smartpresent/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
