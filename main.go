package main

import "fleet-sync/cmd"

func main() {
	cmd.Execute()
}
