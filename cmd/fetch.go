package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"luminor/config"
	"luminor/feeds"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch one feed group and print it as JSON",
		Description: `Fetches every source feed of the given group once and prints the
aggregated document to stdout. Use a tool like jq to process the output.

Prints all log messages to stderr.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "feeds.toml",
				Usage:   "Path to the feed groups configuration file",
				EnvVars: []string{"LUMINOR_CONFIG"},
			},
			&cli.StringFlag{
				Name:     "group",
				Aliases:  []string{"g"},
				Usage:    "Feed group id to fetch",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "feeds-limit",
				Value:   20,
				Usage:   "Maximum number of items kept per source feed",
				EnvVars: []string{"LUMINOR_FEEDS_LIMIT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			// Keep stdout clean for the JSON document
			log.SetOutput(os.Stderr)

			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			aggregator := feeds.NewAggregator(
				cfg,
				feeds.NewCache(time.Minute),
				feeds.NewFetcher(ctx.Int("feeds-limit")),
			)

			payload, err := aggregator.Get(ctx.Context, ctx.String("group"))
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))

			return nil
		},
	}
}
