package main

import "github.com/chrisuehlinger/nodebridge/cmd"

func main() {
	cmd.Execute()
}
