package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	historyuc "github.com/kailas-cloud/supportkb/internal/usecase/history"
)

func buildSearchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a one-off search and print the JSON result",
	}
	cmd.AddCommand(buildSearchKBCmd(opts), buildSearchHistoryCmd(opts))
	return cmd
}

func buildSearchKBCmd(opts *rootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "kb <query>",
		Short: "Search the knowledge base, falling back to keywords when the index is unusable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filters filter.Expression
			if category != "" {
				f, err := filter.Category(category)
				if err != nil {
					return err
				}
				filters = f
			}
			return runSearchKB(cmd.Context(), cmd.OutOrStdout(), opts, strings.Join(args, " "), filters)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Restrict results to one article category")
	return cmd
}

func runSearchKB(ctx context.Context, out io.Writer, opts *rootOptions, query string, filters filter.Expression) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.knowledge.Search(ctx, query, filters)
	if err != nil {
		return fmt.Errorf("knowledge search: %w", err)
	}
	return printJSON(out, res)
}

func buildSearchHistoryCmd(opts *rootOptions) *cobra.Command {
	var customer, query string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Search past tickets by customer and/or free text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearchHistory(cmd.Context(), cmd.OutOrStdout(), opts, historyRequest(cmd, customer, query))
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "Customer id to match exactly")
	cmd.Flags().StringVar(&query, "query", "", "Free text matched against subject, issue type and product area")
	return cmd
}

// historyRequest treats a flag as given when it was set, even to an empty value.
func historyRequest(cmd *cobra.Command, customer, query string) historyuc.Request {
	var req historyuc.Request
	if cmd.Flags().Changed("customer") {
		req.CustomerID = &customer
	}
	if cmd.Flags().Changed("query") {
		req.Query = &query
	}
	return req
}

func runSearchHistory(ctx context.Context, out io.Writer, opts *rootOptions, req historyuc.Request) error {
	a, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.history.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("history search: %w", err)
	}
	return printJSON(out, res)
}
