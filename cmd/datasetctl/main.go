// Command datasetctl edits dataset rows and uploads them to the dataset API in chunks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/datasetctl/internal/cli"
	"github.com/rshade/datasetctl/pkg/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

// run executes the root command with args, cancelling on SIGINT or SIGTERM.
func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
