package main

import (
	"github.com/archon-labs/raglite/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
