package main

import (
	"os"

	"tmux-monitor/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
