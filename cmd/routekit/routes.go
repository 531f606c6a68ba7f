package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/router"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `List every route in registration order. Nested routes are listed
before their parent.

Examples:
  routekit routes
  routekit routes --format json
  routekit routes -m s3://site/routes.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			r := app.Router()
			records := make([]*router.Record, 0)
			for _, path := range r.RouteList() {
				records = append(records, r.Route(path))
			}

			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), records)
			case "table", "":
				return writeTable(cmd.OutOrStdout(), records)
			default:
				return rkerrors.New("E080").
					WithDetail("unknown format " + format).
					WithSuggestion("Use --format table or --format json")
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")

	return cmd
}

var tablePhases = []router.Phase{
	router.PhaseBefore,
	router.PhaseBeforeInit,
	router.PhaseBeforeUpdate,
	router.PhaseInit,
	router.PhaseUpdate,
	router.PhaseAfter,
	router.PhaseUnload,
	router.PhasePop,
}

func writeTable(w io.Writer, records []*router.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tNAME\tPARENT\tHOOKS")
	for _, rec := range records {
		parent := "-"
		if rec.Parent() != nil {
			parent = rec.Parent().Path()
		}
		name := rec.Name()
		if name == "" {
			name = "-"
		}
		var hooks []string
		for _, p := range tablePhases {
			if rec.HasHook(p) {
				hooks = append(hooks, p.String())
			}
		}
		hookList := strings.Join(hooks, ",")
		if hookList == "" {
			hookList = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.Path(), name, parent, hookList)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
