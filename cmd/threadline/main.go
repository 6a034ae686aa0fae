package main

import "github.com/atikulmunna/threadline/internal/cmd"

func main() {
	cmd.Execute()
}
