package main

import "github.com/iksnae/gemini-attach/cmd"

func main() {
	cmd.Execute()
}
