package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/datasetctl/internal/form"
	"github.com/rshade/datasetctl/internal/render"
)

func newListCmd(env *cmdEnv) *cobra.Command {
	var (
		flags       pageFlags
		all         bool
		output      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a page of datasets",
		Long: `Fetches one page of datasets from the API and prints it. With --all every
page is fetched, several at a time, and printed without a page footer.`,
		Example: `  datasetctl list
  datasetctl list --page 3 --size 25
  datasetctl list --search sales --output json
  datasetctl list --all --output csv > datasets.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := render.ParseOutputFormat(output)
			if err != nil {
				return err
			}

			ctrl, err := env.newController(flags.options(cmd, env)...)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			ctx := cmd.Context()
			if all {
				rows, fetchErr := ctrl.FetchAll(ctx, concurrency)
				if fetchErr != nil {
					return fetchErr
				}
				logger.Debug().Ctx(ctx).Int("rows", len(rows)).Msg("fetched all pages")
				return render.Rows(cmd.OutOrStdout(), format, rows, nil)
			}

			if fetchErr := ctrl.FetchDatasets(ctx); fetchErr != nil {
				return fetchErr
			}
			p := ctrl.Pagination()
			return render.Rows(cmd.OutOrStdout(), format, ctrl.Datasets(), &p)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	cmd.Flags().StringVarP(&output, "output", "o", string(render.OutputTable), "output format: table, json, yaml or csv")
	cmd.Flags().IntVar(&concurrency, "concurrency", form.DefaultFetchConcurrency, "pages fetched at once with --all")

	return cmd
}
