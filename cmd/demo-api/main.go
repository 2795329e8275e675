package main

import "github.com/deppfellow/demo-api/internal/cli"

func main() {
	cli.Execute()
}
