// Command nutribuddy runs the nutrition chat backend and its terminal client.
package main

import "github.com/diogo/nutribuddy/internal/commands"

func main() {
	commands.Execute()
}
