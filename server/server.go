package server

import (
	"context"
	"errors"
	"strconv"
	"time"

	"luminor/db"
	"luminor/feeds"
	"luminor/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// FeedSource serves aggregated feed documents per configured group.
type FeedSource interface {
	Get(ctx context.Context, group string) (*models.GroupFeeds, error)
}

// PunishmentSource answers punishment listing and detail queries.
type PunishmentSource interface {
	QueryPunishments(ctx context.Context, filters models.PunishmentFilters) (*models.PunishmentPage, error)
	GetPunishment(ctx context.Context, typ models.PunishmentType, id int64) (*models.PunishmentDetail, error)
}

type ServerConfig struct {

	// The feed aggregator backing /api/feeds
	Feeds FeedSource

	// The punishment reader backing /api/warn
	Punishments PunishmentSource
}

// Returns a fiber.App instance serving the community site APIs
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"status":  c.Response().StatusCode(),
			"latency": time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	app.Get("/api/feeds/:group", func(c *fiber.Ctx) error {
		group := c.Params("group")

		payload, err := config.Feeds.Get(c.Context(), group)
		if err != nil {
			if errors.Is(err, feeds.ErrUnknownGroup) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown feed page"})
			}
			log.WithFields(log.Fields{
				"group": group,
				"error": err,
			}).Error("Error aggregating feed group")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(payload)
	})

	app.Get("/api/warn", func(c *fiber.Ctx) error {
		typ, err := models.ParseType(c.Query("type"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		filters := models.PunishmentFilters{
			Type:   typ,
			Player: c.Query("player"),
			Staff:  c.Query("staff"),
			Search: c.Query("search"),
			Sort:   c.Query("sort", "date"),
			Order:  c.Query("order", "desc"),
			Page:   queryInt(c, "page", 1),
			Limit:  queryInt(c, "limit", 25),
		}

		log.WithFields(log.Fields{
			"type":  filters.Type,
			"sort":  filters.Sort,
			"order": filters.Order,
			"page":  filters.Page,
			"limit": filters.Limit,
		}).Info("Query punishments with parameters")

		page, err := config.Punishments.QueryPunishments(c.Context(), filters)
		if err != nil {
			if errors.Is(err, models.ErrInvalidType) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error querying punishments")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(page)
	})

	app.Get("/api/warn/:type/:id", func(c *fiber.Ctx) error {
		typ, err := models.ParseType(c.Params("type"))
		if err != nil || typ == models.TypeAll {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid punishment type"})
		}

		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid punishment id"})
		}

		detail, err := config.Punishments.GetPunishment(c.Context(), typ, id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
			}
			log.WithFields(log.Fields{
				"type":  typ,
				"id":    id,
				"error": err,
			}).Error("Error loading punishment")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(detail)
	})

	return app
}

// queryInt parses an integer query parameter, falling back to def on
// absent or malformed values. Range clamping happens in the query layer.
func queryInt(c *fiber.Ctx, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
