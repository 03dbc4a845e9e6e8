package main

import "github.com/darklock/relay/internal/cli"

func main() {
	cli.Execute()
}
