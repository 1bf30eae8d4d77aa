package main

import (
	"github.com/harlanhai/blockchain-server/cmd/commands"
)

func main() {
	commands.Execute()
}
