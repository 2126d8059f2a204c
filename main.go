package main

import "geomancer/cmd"

func main() {
	cmd.Execute()
}
