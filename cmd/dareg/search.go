package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/dareg/internal/backend"
	"github.com/kailas-cloud/dareg/internal/domain/actor"
	"github.com/kailas-cloud/dareg/internal/domain/search/request"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

var searchFlags struct {
	query     string
	filters   string
	schema    string
	model     string
	actor     string
	superuser bool
	limit     int
	offset    int
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search against the configured store and print the page",
	Example: `  dareg search -q lysozyme --actor alice
  dareg search --model Dataset --schema 3 --filters '{"metadata.sample.ph": {"$gt": 7}}' --superuser`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := value.NullValue()
		if searchFlags.filters != "" {
			var err error
			if f, err = value.Parse([]byte(searchFlags.filters)); err != nil {
				return fmt.Errorf("--filters: %w", err)
			}
		}
		page := request.NewPage(&searchFlags.limit, &searchFlags.offset, request.DefaultLimit, request.MaxLimit)
		req, err := request.New(searchFlags.query, f, searchFlags.schema, searchFlags.model, page)
		if err != nil {
			return err //nolint:wrapcheck // client error
		}

		return withServices(cmd, func(ctx context.Context, svc *backend.Services) error {
			res, err := svc.Search.Search(ctx, cliActor(), req, nil)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var fieldsCmd = &cobra.Command{
	Use:   "fields <schema-id>",
	Short: "List the filterable metadata fields of a schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *backend.Services) error {
			fields, err := svc.Schemas.MetadataFields(ctx, cliActor(), args[0])
			if err != nil {
				return fmt.Errorf("metadata fields: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), fields)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, fieldsCmd} {
		c.Flags().StringVar(&searchFlags.actor, "actor", "", "actor id to search as (empty: anonymous)")
		c.Flags().BoolVar(&searchFlags.superuser, "superuser", false, "search as a superuser")
	}
	searchCmd.Flags().StringVarP(&searchFlags.query, "query", "q", "", "free-text query")
	searchCmd.Flags().StringVar(&searchFlags.filters, "filters", "", "JSON filter document")
	searchCmd.Flags().StringVar(&searchFlags.schema, "schema", "", "schema id for metadata filters")
	searchCmd.Flags().StringVar(&searchFlags.model, "model", "", "restrict to one model")
	searchCmd.Flags().IntVar(&searchFlags.limit, "limit", request.DefaultLimit, "page size")
	searchCmd.Flags().IntVar(&searchFlags.offset, "offset", 0, "page offset")
}

func cliActor() actor.Actor {
	return actor.New(searchFlags.actor, searchFlags.superuser)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
