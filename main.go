package main

import "github.com/devon-mar/nextlinks/cmd"

func main() {
	cmd.Execute()
}
