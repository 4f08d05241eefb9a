package main

import "github.com/devicelab-dev/mobile-harness/pkg/cli"

func main() {
	cli.Execute()
}
