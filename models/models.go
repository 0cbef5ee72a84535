package models

import (
	"errors"
	"fmt"
	"time"
)

// MediaAttachment is a single media:content entry attached to a feed item.
// FileSize is nil when the upstream attribute is absent or not a number.
type MediaAttachment struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	FileSize    *int64 `json:"fileSize"`
	Medium      string `json:"medium"`
	Description string `json:"description"`
}

// NormalizedItem is the uniform item shape served to the site regardless of
// the upstream feed format.
type NormalizedItem struct {
	Title          string            `json:"title"`
	Link           string            `json:"link"`
	PubDate        string            `json:"pubDate"`
	Author         string            `json:"author"`
	ContentSnippet string            `json:"contentSnippet"`
	Content        string            `json:"content"`
	Media          []MediaAttachment `json:"media"`
}

// SourceFeed holds the normalized items of one feed URL. A failed fetch
// keeps the entry with an empty item list and the error message attached.
type SourceFeed struct {
	URL   string           `json:"url"`
	Title string           `json:"title"`
	Items []NormalizedItem `json:"items"`
	Error string           `json:"error,omitempty"`
}

// GroupFeeds is the aggregated document for one configured feed group.
// GeneratedAt is captured when the group was refreshed, not per request.
type GroupFeeds struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Feeds       []SourceFeed `json:"feeds"`
}

// PunishmentType discriminates the four punishment tables.
type PunishmentType string

const (
	TypeBan  PunishmentType = "ban"
	TypeMute PunishmentType = "mute"
	TypeWarn PunishmentType = "warn"
	TypeKick PunishmentType = "kick"
)

// TypeAll selects every punishment table. It is the zero value so an absent
// query parameter means "all types".
const TypeAll PunishmentType = ""

// ErrInvalidType marks a type parameter outside the known punishment kinds.
var ErrInvalidType = errors.New("unknown punishment type")

// ParseType validates a type query parameter. The empty string and "all"
// both mean all types; anything else must name one of the four punishment
// kinds.
func ParseType(value string) (PunishmentType, error) {
	if value == "all" {
		return TypeAll, nil
	}
	switch PunishmentType(value) {
	case TypeAll, TypeBan, TypeMute, TypeWarn, TypeKick:
		return PunishmentType(value), nil
	}
	return TypeAll, fmt.Errorf("%w: %q", ErrInvalidType, value)
}

// PunishmentRecord is one row of the unioned punishment relation. Player is
// the latest known display name, falling back to the raw UUID when the
// history table has no match (PlayerName is nil in that case). Time and
// Until are passed through in the unit the datastore uses; Until of 0 means
// no expiry was recorded.
type PunishmentRecord struct {
	ID         int64          `json:"id"`
	Type       PunishmentType `json:"type"`
	Player     string         `json:"player"`
	PlayerUUID string         `json:"player_uuid"`
	PlayerName *string        `json:"player_name"`
	Staff      string         `json:"staff"`
	Reason     string         `json:"reason"`
	Time       int64          `json:"time"`
	Until      int64          `json:"until"`
}

// PunishmentDetail is the single-record view with the server columns the
// detail page renders.
type PunishmentDetail struct {
	PunishmentRecord
	ServerScope  string `json:"server_scope"`
	ServerOrigin string `json:"server_origin"`
}

// TypeCounts holds the unfiltered per-type row counts returned with every
// punishment page.
type TypeCounts struct {
	Ban   int64 `json:"ban"`
	Mute  int64 `json:"mute"`
	Warn  int64 `json:"warn"`
	Kick  int64 `json:"kick"`
	Total int64 `json:"total"`
}

// PunishmentFilters carries the parsed query parameters of a punishment
// listing request. Page and Limit are clamped by the query layer.
type PunishmentFilters struct {
	Type   PunishmentType
	Player string
	Staff  string
	Search string
	Sort   string
	Order  string
	Page   int
	Limit  int
}

// PunishmentPage is the listing response: one page of records plus the
// total row count under the current filters and the global type counts.
type PunishmentPage struct {
	Page   int                `json:"page"`
	Limit  int                `json:"limit"`
	Total  int64              `json:"total"`
	Counts TypeCounts         `json:"counts"`
	Items  []PunishmentRecord `json:"items"`
}
