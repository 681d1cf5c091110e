package main

import "github.com/kozaktomas/landmark-studio/cmd"

func main() {
	cmd.Execute()
}
