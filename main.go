// Package main is the entry point for the susscan CLI, which scores Chess.com
// players for tournament sandbagging and rating manipulation.
package main

import "github.com/pable/susscan/cmd"

func main() {
	cmd.Execute()
}
