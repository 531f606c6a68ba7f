package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/routekit/pkg/router"
)

func navigateCmd(flags *globalFlags) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "navigate <url>...",
		Short: "Run navigations and print their results",
		Long: `Start the router and navigate to each URL in turn. Hooks from the
manifest are bound to no-ops, so this shows matching, ordering and
history behaviour only.

Examples:
  routekit navigate /docs/intro /docs/setup`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags)
			if err != nil {
				return err
			}
			r := app.Router()
			if _, err := r.Run(ctx); err != nil {
				return err
			}

			var opts []router.NavigateOption
			if replace {
				opts = append(opts, router.WithReplace())
			}
			results := make([]router.Result, 0, len(args))
			for _, target := range args {
				res, err := r.Navigate(ctx, target, opts...)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the history entry instead of pushing")

	return cmd
}
