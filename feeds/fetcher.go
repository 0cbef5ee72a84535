package feeds

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"luminor/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	fetchTimeout    = 20 * time.Second
	fetchMaxRetries = 2
)

// Fetcher downloads and normalizes a single source feed. Failures degrade
// to an empty item list with the error message attached so one bad source
// never fails a whole group.
type Fetcher struct {
	parser    *gofeed.Parser
	itemLimit int
}

func NewFetcher(itemLimit int) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: fetchTimeout}
	parser.UserAgent = "luminor-feeds/1.0"

	return &Fetcher{
		parser:    parser,
		itemLimit: itemLimit,
	}
}

func fetchBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.Multiplier = 1.5
	return backoff.WithContext(backoff.WithMaxRetries(bo, fetchMaxRetries), ctx)
}

// Fetch downloads one feed URL and returns its normalized representation.
func (f *Fetcher) Fetch(ctx context.Context, url string) models.SourceFeed {
	var parsed *gofeed.Feed

	err := backoff.Retry(func() error {
		var err error
		parsed, err = f.parser.ParseURLWithContext(url, ctx)
		return err
	}, fetchBackOff(ctx))

	if err != nil {
		log.WithFields(log.Fields{
			"url":   url,
			"error": err,
		}).Warn("Failed to fetch feed")
		fetchErrors.WithLabelValues(url).Inc()

		return models.SourceFeed{
			URL:   url,
			Title: url,
			Items: []models.NormalizedItem{},
			Error: err.Error(),
		}
	}

	title := parsed.Title
	if title == "" {
		title = url
	}

	// Truncate before normalizing, keeping the source feed's own order.
	items := parsed.Items
	if len(items) > f.itemLimit {
		items = items[:f.itemLimit]
	}

	return models.SourceFeed{
		URL:   url,
		Title: title,
		Items: lo.Map(items, func(item *gofeed.Item, _ int) models.NormalizedItem {
			return normalizeItem(item)
		}),
	}
}

func normalizeItem(item *gofeed.Item) models.NormalizedItem {
	pubDate := item.Published
	if item.PublishedParsed != nil {
		pubDate = item.PublishedParsed.UTC().Format(time.RFC3339)
	}

	return models.NormalizedItem{
		Title:          item.Title,
		Link:           item.Link,
		PubDate:        pubDate,
		Author:         itemAuthor(item),
		ContentSnippet: item.Description,
		Content:        item.Content,
		Media:          normalizeMedia(item),
	}
}

func itemAuthor(item *gofeed.Item) string {
	for _, author := range item.Authors {
		if author == nil {
			continue
		}
		if author.Name != "" {
			return author.Name
		}
		if author.Email != "" {
			return author.Email
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return ""
}

// normalizeMedia extracts media:content attachments. Entries without a url
// attribute are dropped.
func normalizeMedia(item *gofeed.Item) []models.MediaAttachment {
	media := make([]models.MediaAttachment, 0)

	contents, ok := item.Extensions["media"]["content"]
	if !ok {
		return media
	}

	for _, content := range contents {
		url := content.Attrs["url"]
		if url == "" {
			continue
		}

		var fileSize *int64
		if raw := content.Attrs["fileSize"]; raw != "" {
			if size, err := strconv.ParseInt(raw, 10, 64); err == nil {
				fileSize = &size
			}
		}

		media = append(media, models.MediaAttachment{
			URL:         url,
			Type:        content.Attrs["type"],
			FileSize:    fileSize,
			Medium:      content.Attrs["medium"],
			Description: mediaDescription(content, item),
		})
	}

	return media
}

// mediaDescription resolves the description of one attachment. The element
// may be nested inside media:content or live beside it on the item.
func mediaDescription(content ext.Extension, item *gofeed.Item) string {
	if nested, ok := content.Children["description"]; ok && len(nested) > 0 {
		return nested[0].Value
	}
	if siblings, ok := item.Extensions["media"]["description"]; ok && len(siblings) > 0 {
		return siblings[0].Value
	}
	return ""
}
