// File: main.go
package main

import "github.com/hexbolt9/limpet-cli/cmd"

func main() {
	cmd.Execute()
}
