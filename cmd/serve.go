package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luminor/config"
	"luminor/db"
	"luminor/feeds"
	"luminor/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the community site APIs",
		Description: `Starts the HTTP server.

Serves the aggregated feed groups under /api/feeds/{group} and the
punishment listing under /api/warn. The punishment database is opened
read-only with a bounded connection pool; feed groups are refreshed on
demand and cached in memory for the configured TTL.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3101,
				Usage:   "Port to listen on",
				EnvVars: []string{"LUMINOR_PORT"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "feeds.toml",
				Usage:   "Path to the feed groups configuration file",
				EnvVars: []string{"LUMINOR_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "Punishment database file location",
				EnvVars: []string{"LUMINOR_DATABASE"},
			},
			&cli.IntFlag{
				Name:    "db-max-conns",
				Value:   5,
				Usage:   "Maximum concurrent database connections",
				EnvVars: []string{"LUMINOR_DB_MAX_CONNS"},
			},
			&cli.DurationFlag{
				Name:    "feeds-ttl",
				Value:   20 * time.Minute,
				Usage:   "How long an aggregated feed group stays cached",
				EnvVars: []string{"LUMINOR_FEEDS_TTL"},
			},
			&cli.IntFlag{
				Name:    "feeds-limit",
				Value:   20,
				Usage:   "Maximum number of items kept per source feed",
				EnvVars: []string{"LUMINOR_FEEDS_LIMIT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			database := ctx.String("database")
			if database == "" {
				return errors.New("no punishment database configured, set --database or LUMINOR_DATABASE")
			}

			reader, err := db.NewReader(database, ctx.Int("db-max-conns"))
			if err != nil {
				return err
			}
			defer reader.Close()

			aggregator := feeds.NewAggregator(
				cfg,
				feeds.NewCache(ctx.Duration("feeds-ttl")),
				feeds.NewFetcher(ctx.Int("feeds-limit")),
			)

			app := server.Server(&server.ServerConfig{
				Feeds:       aggregator,
				Punishments: reader,
			})

			// Graceful shutdown
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-quit
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
					log.Error("Error shutting down server", err)
				}
			}()

			log.WithFields(log.Fields{
				"port":   ctx.Int("port"),
				"groups": len(cfg.Groups),
			}).Info("Starting server")

			return app.Listen(fmt.Sprintf(":%d", ctx.Int("port")))
		},
	}
}
