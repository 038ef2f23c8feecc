package main

import "github.com/trackforge/s2s/internal/cli"

func main() {
	cli.Execute()
}
