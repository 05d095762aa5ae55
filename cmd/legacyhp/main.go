package main

import "github.com/tmaru-eng/legacy-homepage/cmd/legacyhp/commands"

func main() {
	commands.Execute()
}
