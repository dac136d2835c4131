// Command mcpadre is the dependency-and-configuration broker between MCP
// clients and MCP servers: it materializes a pinned execution environment
// per server and launches it under OS-level sandboxing.
package main

import (
	"os"

	"github.com/mcpadre/mcpadre/cmd/mcpadre/cli"
)

func main() {
	os.Exit(cli.Execute())
}
