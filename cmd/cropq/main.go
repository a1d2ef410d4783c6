// Command cropq evaluates boolean crop queries over a store of labeled 2D
// points.
package main

import (
	"os"

	"github.com/roach88/cropq/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
