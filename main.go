package main

import "nodestore/cmd"

func main() {
	cmd.Execute()
}
