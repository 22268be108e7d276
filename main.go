package main

import "social-publisher/cmd"

func main() {
	cmd.Execute()
}
