package main

import (
	cmd "github.com/tunelab/tune/cmd/tune"
)

func main() {
	cmd.Execute()
}
