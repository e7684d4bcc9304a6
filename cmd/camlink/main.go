package main

import "github.com/cdaudt/camlink/cmd/camlink/commands"

func main() {
	commands.Execute()
}
