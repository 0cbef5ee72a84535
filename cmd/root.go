package cmd

import (
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "luminor",
		Usage: "JSON APIs for the Luminor community site",
		Description: `Backend for the static Luminor community site.

		Aggregates the configured RSS/Atom feed groups into one JSON
		document per group, with a time-boxed in-memory cache, and serves
		a filtered, sorted and paginated view over the punishment tables
		written by the moderation plugin.

		Flags can generally be set via environment variables, e.g.:

		--database => LUMINOR_DATABASE=litebans.db
		--port => LUMINOR_PORT=3101
		`,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			fetchCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}
