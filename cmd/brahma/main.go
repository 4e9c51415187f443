// brahma — governance and audit layer for the Brahma wellness agent.
package main

import "github.com/brahmalabs/brahma/internal/cli"

func main() {
	cli.Execute()
}
