package main

import "github.com/nfrund/shellbus/cmd/shellbus/cmd"

func main() {
	cmd.Execute()
}
