package main

import (
	"fmt"

	"github.com/spf13/cobra"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
)

func matchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "match <url>",
		Short: "Match a URL against the route table",
		Long: `Match a URL without navigating. No hooks run.

Examples:
  routekit match /docs/intro
  routekit match "https://example.com/blog/5?sort=asc#top"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			route, err := app.Router().Match(args[0])
			if err != nil {
				return rkerrors.New("E042").WithDetail(args[0]).Wrap(err)
			}
			if route == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "no route matches %s\n", args[0])
				return rkerrors.New("E080").WithDetail("no route matches " + args[0])
			}
			return writeJSON(cmd.OutOrStdout(), route)
		},
	}
}
