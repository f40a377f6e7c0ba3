package main

import "github.com/tactuslabs/tactus/cmd"

func main() {
	cmd.Execute()
}
