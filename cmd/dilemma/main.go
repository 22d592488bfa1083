package main

import "github.com/mcoot/dilemmagame/internal/cli"

func main() {
	cli.Execute()
}
