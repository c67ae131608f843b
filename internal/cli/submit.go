package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/datasetctl/internal/batch"
	"github.com/rshade/datasetctl/internal/dataset"
	"github.com/rshade/datasetctl/internal/form"
	"github.com/rshade/datasetctl/internal/render"
	"github.com/rshade/datasetctl/internal/rowfile"
)

type submitOptions struct {
	file      string
	chunkSize int
	strict    bool
	dryRun    bool
	quiet     bool
}

func newSubmitCmd(env *cmdEnv) *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Upload rows from a file in chunks",
		Long: `Reads rows from a JSON, YAML or CSV file and uploads them to the batch
endpoint one chunk at a time. A failed chunk is reported and the upload moves on
to the next one. Use --strict to exit with status 2 when any chunk failed.`,
		Example: `  datasetctl submit --file rows.csv
  datasetctl submit --file rows.yaml --chunk-size 250
  datasetctl submit --file rows.json --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("chunk-size") {
				opts.chunkSize = env.cfg.Upload.ChunkSize
			}
			return runSubmit(cmd, env, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "rows file (.json, .yaml, .yml or .csv)")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "rows per batch request (default upload.chunk_size)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with status 2 if any chunk failed")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the chunk plan without uploading")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print progress")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSubmit(cmd *cobra.Command, env *cmdEnv, opts submitOptions) error {
	ctx := cmd.Context()

	rows, err := rowfile.Load(ctx, opts.file)
	if err != nil {
		return err
	}

	if opts.dryRun {
		p, procErr := batch.NewProcessor[dataset.Row](opts.chunkSize)
		if procErr != nil {
			return fmt.Errorf("--chunk-size: %w", procErr)
		}
		return render.ChunkPlan(cmd.OutOrStdout(), p.Bounds(len(rows)))
	}

	ctrlOpts := []form.Option{form.WithChunkSize(opts.chunkSize)}
	if !opts.quiet {
		errOut := cmd.ErrOrStderr()
		ctrlOpts = append(ctrlOpts, form.WithProgress(func(s batch.ProgressSnapshot) {
			_, _ = fmt.Fprintln(errOut, render.Progress(s))
		}))
	}

	ctrl, err := env.newController(ctrlOpts...)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctrl.ReplaceRows(rows)

	report, err := ctrl.HandleChunkedSubmit(ctx)
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%s: row %d: %w", opts.file, verr.Index+1, verr.Err)
		}
		return err
	}

	if err := render.SubmitReport(cmd.OutOrStdout(), report, ctrl.Message()); err != nil {
		return err
	}

	if opts.strict && report.Failed() > 0 {
		return &ChunkFailureError{Failed: report.Failed(), Total: len(report.Chunks), Err: report.Err()}
	}
	return nil
}
