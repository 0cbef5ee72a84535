package feeds_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"luminor/config"
	"luminor/feeds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssDocument(title string, itemCount int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	sb.WriteString("<channel><title>" + title + "</title>")

	for i := 1; i <= itemCount; i++ {
		sb.WriteString(fmt.Sprintf(`<item>
			<title>Post %d</title>
			<link>https://example.com/posts/%d</link>
			<pubDate>Fri, 14 Feb 2025 08:30:00 GMT</pubDate>
			<dc:creator>newsdesk</dc:creator>
			<description>Summary %d</description>
			<media:content url="https://cdn.example.com/%d.png" type="image/png" fileSize="1024" medium="image">
				<media:description>Screenshot %d</media:description>
			</media:content>
		</item>`, i, i, i, i, i))
	}

	sb.WriteString("</channel></rss>")
	return sb.String()
}

func rssServer(t *testing.T, title string, itemCount int, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssDocument(title, itemCount))
	}))
	t.Cleanup(server.Close)
	return server
}

func newAggregator(urls []string, itemLimit int) *feeds.Aggregator {
	cfg := &config.TomlConfig{
		Groups: []config.TomlGroup{{ID: "news", URLs: urls}},
	}
	return feeds.NewAggregator(cfg, feeds.NewCache(20*time.Minute), feeds.NewFetcher(itemLimit))
}

func TestGetUnknownGroup(t *testing.T) {
	aggregator := newAggregator([]string{"https://example.com/rss"}, 20)

	_, err := aggregator.Get(context.Background(), "sports")
	assert.ErrorIs(t, err, feeds.ErrUnknownGroup)
}

func TestGetAggregatesGroup(t *testing.T) {
	first := rssServer(t, "First Source", 3, nil)
	second := rssServer(t, "Second Source", 2, nil)

	aggregator := newAggregator([]string{first.URL, second.URL}, 20)

	payload, err := aggregator.Get(context.Background(), "news")
	require.NoError(t, err)
	require.Len(t, payload.Feeds, 2)
	assert.False(t, payload.GeneratedAt.IsZero())

	// Source order follows configuration, not completion order.
	assert.Equal(t, first.URL, payload.Feeds[0].URL)
	assert.Equal(t, "First Source", payload.Feeds[0].Title)
	assert.Equal(t, second.URL, payload.Feeds[1].URL)

	require.Len(t, payload.Feeds[0].Items, 3)
	item := payload.Feeds[0].Items[0]
	assert.Equal(t, "Post 1", item.Title)
	assert.Equal(t, "https://example.com/posts/1", item.Link)
	assert.Equal(t, "2025-02-14T08:30:00Z", item.PubDate)
	assert.Equal(t, "newsdesk", item.Author)
	assert.Equal(t, "Summary 1", item.ContentSnippet)

	require.Len(t, item.Media, 1)
	assert.Equal(t, "https://cdn.example.com/1.png", item.Media[0].URL)
	assert.Equal(t, "image/png", item.Media[0].Type)
	require.NotNil(t, item.Media[0].FileSize)
	assert.Equal(t, int64(1024), *item.Media[0].FileSize)
	assert.Equal(t, "Screenshot 1", item.Media[0].Description)
}

func TestGetTruncatesItems(t *testing.T) {
	server := rssServer(t, "Busy Source", 25, nil)

	aggregator := newAggregator([]string{server.URL}, 20)

	payload, err := aggregator.Get(context.Background(), "news")
	require.NoError(t, err)
	require.Len(t, payload.Feeds, 1)
	require.Len(t, payload.Feeds[0].Items, 20)
	assert.Equal(t, "Post 1", payload.Feeds[0].Items[0].Title)
	assert.Equal(t, "Post 20", payload.Feeds[0].Items[19].Title)
}

func TestGetDegradesFailedSource(t *testing.T) {
	healthy := rssServer(t, "Healthy Source", 2, nil)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	aggregator := newAggregator([]string{healthy.URL, broken.URL}, 20)

	payload, err := aggregator.Get(context.Background(), "news")
	require.NoError(t, err)
	require.Len(t, payload.Feeds, 2)

	assert.Equal(t, "Healthy Source", payload.Feeds[0].Title)
	assert.Empty(t, payload.Feeds[0].Error)
	assert.Len(t, payload.Feeds[0].Items, 2)

	assert.Equal(t, broken.URL, payload.Feeds[1].URL)
	assert.Equal(t, broken.URL, payload.Feeds[1].Title)
	assert.NotEmpty(t, payload.Feeds[1].Error)
	assert.Empty(t, payload.Feeds[1].Items)
}

func TestGetServesCachedPayload(t *testing.T) {
	var hits atomic.Int64
	server := rssServer(t, "Cached Source", 1, &hits)

	aggregator := newAggregator([]string{server.URL}, 20)

	first, err := aggregator.Get(context.Background(), "news")
	require.NoError(t, err)

	second, err := aggregator.Get(context.Background(), "news")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), hits.Load())
}
