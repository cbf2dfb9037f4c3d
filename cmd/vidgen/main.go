package main

import "github.com/pridato/vidgen/internal/cli"

func main() {
	cli.Main()
}
