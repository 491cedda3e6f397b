package main

import "github.com/SableBench/rnaloc-cli/cmd"

func main() {
	cmd.Execute()
}
