package main

import "github.com/devaloi/agora/internal/cli"

func main() {
	cli.Main()
}
