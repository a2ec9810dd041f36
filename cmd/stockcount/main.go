// Command stockcount is the multi-branch inventory counting CLI and server.
package main

import "github.com/mesh-intelligence/stockcount/internal/cli"

func main() {
	cli.Execute()
}
