package main

import (
	"fmt"

	"github.com/dominicbreuker/fsw/cmd"
)

var version string
var commit string

func main() {
	fmt.Printf("fsw - version: %s - Commit SHA: %s\n", version, commit)
	cmd.Execute()
}
