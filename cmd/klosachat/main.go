// Command klosachat is a terminal client for a KlosaNow chat endpoint.
package main

import "github.com/diogo/klosachat/internal/commands"

func main() {
	commands.Execute()
}
