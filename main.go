package main

import "solis/cmd"

func main() {
	cmd.Execute()
}
