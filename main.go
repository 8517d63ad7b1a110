package main

import "github.com/rodja/ChatGPT/cmd"

func main() {
	cmd.Execute()
}
