package main

import (
	"github.com/stagehand-dev/stagehand/cmd/stagehand/commands"
)

func main() {
	commands.Execute()
}
