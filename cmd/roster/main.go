package main

import "github.com/rosterdesk/roster/internal/cli"

func main() {
	cli.Execute()
}
