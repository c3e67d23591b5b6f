package main

import "github.com/milkdesk/internal/cli"

func main() {
	cli.Execute()
}
