package main

import "github.com/notargets/sparsegrid/cmd"

func main() {
	cmd.Execute()
}
