package main

import "github.com/brogergvhs/mangasync/cmd"

func main() {
	cmd.Execute()
}
