package feeds

import (
	"testing"
	"time"

	"luminor/models"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
)

func mediaContent(attrs map[string]string, children map[string][]ext.Extension) ext.Extension {
	return ext.Extension{
		Name:     "content",
		Attrs:    attrs,
		Children: children,
	}
}

func TestNormalizeMedia(t *testing.T) {
	size := int64(36600)

	tests := []struct {
		name string
		item *gofeed.Item
		want []models.MediaAttachment
	}{
		{
			name: "no media namespace",
			item: &gofeed.Item{},
			want: []models.MediaAttachment{},
		},
		{
			name: "complete attachment",
			item: &gofeed.Item{
				Extensions: ext.Extensions{
					"media": {
						"content": {
							mediaContent(map[string]string{
								"url":      "https://cdn.example.com/a.png",
								"type":     "image/png",
								"fileSize": "36600",
								"medium":   "image",
							}, map[string][]ext.Extension{
								"description": {{Name: "description", Value: "a screenshot"}},
							}),
						},
					},
				},
			},
			want: []models.MediaAttachment{
				{
					URL:         "https://cdn.example.com/a.png",
					Type:        "image/png",
					FileSize:    &size,
					Medium:      "image",
					Description: "a screenshot",
				},
			},
		},
		{
			name: "entry without url is dropped",
			item: &gofeed.Item{
				Extensions: ext.Extensions{
					"media": {
						"content": {
							mediaContent(map[string]string{"type": "image/png"}, nil),
							mediaContent(map[string]string{"url": "https://cdn.example.com/b.jpg"}, nil),
						},
					},
				},
			},
			want: []models.MediaAttachment{
				{URL: "https://cdn.example.com/b.jpg"},
			},
		},
		{
			name: "unparseable fileSize is omitted",
			item: &gofeed.Item{
				Extensions: ext.Extensions{
					"media": {
						"content": {
							mediaContent(map[string]string{
								"url":      "https://cdn.example.com/c.mp4",
								"fileSize": "large",
							}, nil),
						},
					},
				},
			},
			want: []models.MediaAttachment{
				{URL: "https://cdn.example.com/c.mp4"},
			},
		},
		{
			name: "description falls back to item-level sibling",
			item: &gofeed.Item{
				Extensions: ext.Extensions{
					"media": {
						"content": {
							mediaContent(map[string]string{"url": "https://cdn.example.com/d.png"}, nil),
						},
						"description": {{Name: "description", Value: "sibling text"}},
					},
				},
			},
			want: []models.MediaAttachment{
				{URL: "https://cdn.example.com/d.png", Description: "sibling text"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMedia(tt.item))
		})
	}
}

func TestItemAuthor(t *testing.T) {
	tests := []struct {
		name string
		item *gofeed.Item
		want string
	}{
		{
			name: "author name",
			item: &gofeed.Item{Authors: []*gofeed.Person{{Name: "seren"}}},
			want: "seren",
		},
		{
			name: "email when name missing",
			item: &gofeed.Item{Authors: []*gofeed.Person{{Email: "seren@example.com"}}},
			want: "seren@example.com",
		},
		{
			name: "dublin core creator fallback",
			item: &gofeed.Item{
				DublinCoreExt: &ext.DublinCoreExtension{Creator: []string{"newsdesk"}},
			},
			want: "newsdesk",
		},
		{
			name: "no author information",
			item: &gofeed.Item{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, itemAuthor(tt.item))
		})
	}
}

func TestNormalizeItemPubDate(t *testing.T) {
	parsed := time.Date(2025, 2, 14, 8, 30, 0, 0, time.FixedZone("CET", 3600))

	withParsed := normalizeItem(&gofeed.Item{
		Published:       "Fri, 14 Feb 2025 08:30:00 +0100",
		PublishedParsed: &parsed,
	})
	assert.Equal(t, "2025-02-14T07:30:00Z", withParsed.PubDate)

	withoutParsed := normalizeItem(&gofeed.Item{Published: "yesterday-ish"})
	assert.Equal(t, "yesterday-ish", withoutParsed.PubDate)
}
