package main

import "github.com/cantus-audio/cantus/cmd"

func main() {
	cmd.Execute()
}
