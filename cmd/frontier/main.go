// Command frontier runs the crawler against a configuration file (§6).
package main

import (
	cmd "github.com/kaelvex/frontier/internal/cli"
)

func main() {
	cmd.Execute()
}
