package main

import "github.com/walkerscm/cosmosctl/internal/cli"

func main() {
	cli.Execute()
}
