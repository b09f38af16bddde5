package main

import "github.com/javi11/remotefile/cmd/remotefile/cmd"

func main() {
	cmd.Execute()
}
