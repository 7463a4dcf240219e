// Command javaprint-server serves the Java-to-PDF render API.
package main

import (
	"context"
	"fmt"
	"os"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := run(ctx, os.Args, DefaultDeps()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v%s\n", err, hintFor(err))
		os.Exit(exitCodeFor(err))
	}
}
