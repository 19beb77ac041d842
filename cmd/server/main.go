package main

import "github.com/royalhouse/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
