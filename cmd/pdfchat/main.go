// Command pdfchat ingests PDFs into a vector index and answers questions about them.
package main

import (
	"os"

	"github.com/custodia-labs/pdfchat/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := app.Run(version); err != nil {
		os.Exit(1)
	}
}
