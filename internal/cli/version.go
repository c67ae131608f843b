package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/datasetctl/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			annotationTolerateConfigError: "true",
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
