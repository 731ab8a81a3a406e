package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	ingestuc "github.com/kailas-cloud/supportkb/internal/usecase/ingest"
)

type ingestOutput struct {
	Indexed  int           `json:"indexed"`
	Count    int           `json:"count"`
	Smoke    []smokeOutput `json:"smoke"`
	SmokeErr string        `json:"smoke_error,omitempty"`
}

type smokeOutput struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Distance float64 `json:"distance"`
}

func buildIngestCmd(opts *rootOptions) *cobra.Command {
	var (
		keep       bool
		batchSize  int
		smokeQuery string
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the vector index from the knowledge base corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), opts, ingestuc.Options{
				BatchSize:  batchSize,
				Keep:       keep,
				SmokeQuery: smokeQuery,
			})
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "Upsert over the existing index instead of resetting it")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Articles embedded per upsert (default from config)")
	cmd.Flags().StringVar(&smokeQuery, "smoke-query", ingestuc.DefaultSmokeQuery, "Query run after ingestion to check the index")
	return cmd
}

func runIngest(ctx context.Context, out io.Writer, opts *rootOptions, ingestOpts ingestuc.Options) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if ingestOpts.BatchSize <= 0 {
		ingestOpts.BatchSize = a.cfg.Index.IngestBatchSize
	}

	rep, err := a.ingest.Run(ctx, ingestOpts)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	return printJSON(out, ingestReport(rep))
}

func ingestReport(rep ingestuc.Report) ingestOutput {
	o := ingestOutput{Indexed: rep.Indexed, Count: rep.Count, Smoke: make([]smokeOutput, 0, len(rep.Smoke))}
	for _, h := range rep.Smoke {
		o.Smoke = append(o.Smoke, smokeOutput{ID: h.ID(), Category: h.Metadata().Category, Distance: h.Distance()})
	}
	if rep.SmokeErr != nil {
		o.SmokeErr = rep.SmokeErr.Error()
	}
	return o
}
