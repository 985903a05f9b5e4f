package main

import "kicky/cmd"

func main() {
	cmd.Execute()
}
