package main

import "github.com/bryanchriswhite/ScrollStitch/cmd/scrollstitch/commands"

func main() {
	commands.Execute()
}
