package main

import "match-highlights/cmd"

func main() {
	cmd.Execute()
}
