package main

import "github.com/MJE43/roulette-spin-go/internal/cli"

func main() {
	cli.Execute()
}
