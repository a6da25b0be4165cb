package main

import "github.com/filiprab/a2a-opa/cmd/a2a-opa/cmd"

func main() {
	cmd.Execute()
}
