package main

import "netpulse/app/internal/cli"

func main() {
	cli.Execute()
}
