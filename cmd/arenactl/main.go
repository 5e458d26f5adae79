package main

import "github.com/mcoot/gomoku-arena/internal/cli"

func main() {
	cli.Execute()
}
