package main

import (
	"github.com/PauloFerreira25/velostream/cmd"
)

func main() {
	cmd.Execute()
}
