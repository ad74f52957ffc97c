package main

import "github.com/fakeyudi/timerdeck/cmd"

func main() {
	cmd.Execute()
}
