package main

import (
	"github.com/spf13/cobra"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/uri"
)

func uriCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uri <url>",
		Short: "Parse a navigation target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := uri.Parse(args[0])
			if err != nil {
				return rkerrors.New("E042").WithDetail(args[0]).Wrap(err)
			}
			return writeJSON(cmd.OutOrStdout(), u)
		},
	}
}
