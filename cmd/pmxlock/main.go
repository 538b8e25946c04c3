package main

import "github.com/pmxlock-project/pmxlock/internal/cli"

func main() {
	cli.Execute()
}
