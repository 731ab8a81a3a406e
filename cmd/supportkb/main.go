// Package main is the supportkb command line: it serves the retrieval API,
// rebuilds the vector index and runs one-off searches.
//
//	supportkb serve
//	supportkb ingest [--keep]
//	supportkb search kb "my payment failed"
//	supportkb search history --customer CUST-001 --query "error 500"
//
// The configuration file is config/<ENV>.yaml, ENV defaulting to "local".
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportkb/internal/config"
	logpkg "github.com/kailas-cloud/supportkb/internal/logger"
	"github.com/kailas-cloud/supportkb/internal/version"
)

func main() {
	if err := buildRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// rootOptions are flags shared by every subcommand.
type rootOptions struct {
	env string
}

func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "supportkb",
		Short:         "Hybrid knowledge base and ticket history retrieval",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "Environment name, selects config/<env>.yaml")

	cmd.AddCommand(
		buildServeCmd(opts),
		buildIngestCmd(opts),
		buildSearchCmd(opts),
	)
	return cmd
}

// setup loads configuration, builds the logger and wires the application.
func setup(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(opts.env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting supportkb",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", opts.env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("collection", cfg.Index.Collection),
	)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	a.closers = append([]func(){func() { _ = logger.Sync() }}, a.closers...)
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
