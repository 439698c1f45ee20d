package main

import "github.com/covdash/covdash/cmd"

func main() {
	cmd.Execute()
}
