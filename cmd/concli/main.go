package main

import "github.com/civixvote/console/cmd/concli/commands"

func main() {
	commands.Execute()
}
