package cmd

import (
	"fmt"

	"luminor/db"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create a development punishment database",
		Description: `Creates the punishment tables in a local SQLite database.

In production the schema is owned by the moderation plugin and this
command must not be pointed at it. It exists so the server can be
developed and tested without a production dump.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Value:   "litebans.db",
				Usage:   "SQLite database file location",
				EnvVars: []string{"LUMINOR_DATABASE"},
			},
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Skip the confirmation prompt",
			},
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")
			fmt.Println("Database configured: ", database)

			if !ctx.Bool("yes") {
				answer, err := prompt.New().
					Ask(fmt.Sprintf("Create punishment tables in %s?", database)).
					Choose([]string{"Yes", "No"})
				if err != nil {
					return err
				}
				if answer != "Yes" {
					fmt.Println("Aborted")
					return nil
				}
			}

			return db.Migrate(database)
		},
	}
}
