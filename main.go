package main

import "ptz-cli/cmd"

func main() {
	cmd.Execute()
}
