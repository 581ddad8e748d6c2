package main

import "github.com/millrace/flowbroker/internal/cmd"

func main() {
	cmd.Execute()
}
