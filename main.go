package main

import "github.com/mabhi256/hprofdump/cmd"

func main() {
	cmd.Execute()
}
