package main

import "github.com/exstrade/tradeguard/internal/cli"

func main() {
	cli.Execute()
}
