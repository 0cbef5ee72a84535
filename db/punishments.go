package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"luminor/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound marks a detail lookup for a punishment id that does not exist.
var ErrNotFound = errors.New("punishment not found")

// punishmentTables is the only place a punishment type resolves to a table
// name. Nothing user-controlled ever reaches the SQL text: filter values go
// through parameter binding and table identifiers only come from this map.
var punishmentTables = map[models.PunishmentType]string{
	models.TypeBan:  "litebans_bans",
	models.TypeMute: "litebans_mutes",
	models.TypeWarn: "litebans_warnings",
	models.TypeKick: "litebans_kicks",
}

// listTypeOrder fixes the union order so generated SQL is deterministic.
var listTypeOrder = []models.PunishmentType{
	models.TypeBan,
	models.TypeMute,
	models.TypeWarn,
	models.TypeKick,
}

// latestNames resolves each player UUID to its most recently recorded
// display name in the history table.
const latestNames = "(SELECT uuid, name, MAX(date) AS last_seen FROM litebans_history GROUP BY uuid)"

// sortColumns whitelists the sortable columns of the unioned relation.
var sortColumns = map[string]string{
	"type":   "type",
	"player": "player",
	"staff":  "staff",
	"date":   "time",
}

const (
	defaultLimit = 25
	minLimit     = 5
	maxLimit     = 100
)

// Reader answers read-only punishment queries over a shared bounded
// connection pool.
type Reader struct {
	db *sql.DB
}

func NewReader(database string, maxConns int) (*Reader, error) {
	db, err := connection(database, maxConns)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to punishment database: %w", err)
	}

	return &Reader{db: db}, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// typeSelect builds the per-table select tagging rows with a literal type
// discriminator and joining the latest known name per UUID.
func typeSelect(typ models.PunishmentType, detail bool) *sqlbuilder.SelectBuilder {
	table := punishmentTables[typ]

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(
		sb.As(fmt.Sprintf("'%s'", typ), "type"),
		"p.id",
		sb.As("p.uuid", "player_uuid"),
		sb.As("names.name", "player_name"),
		sb.As("COALESCE(names.name, p.uuid)", "player"),
		sb.As("p.banned_by_name", "staff"),
		"p.reason",
		"p.time",
		"p.until",
	)
	if detail {
		sb.SelectMore("p.server_scope", "p.server_origin")
	}
	sb.From(sb.As(table, "p"))
	sb.JoinWithOption(sqlbuilder.LeftJoin, sb.As(latestNames, "names"), "names.uuid = p.uuid")

	return sb
}

// unionFor combines the per-type selects for the requested type, or all
// four when typ is TypeAll. A select builder gets parenthesized when
// nested, a union builder is spliced verbatim, so the union needs its own
// parentheses to be usable as a FROM subquery.
func unionFor(typ models.PunishmentType) sqlbuilder.Builder {
	if typ != models.TypeAll {
		return typeSelect(typ, false)
	}

	builders := make([]sqlbuilder.Builder, 0, len(listTypeOrder))
	for _, t := range listTypeOrder {
		builders = append(builders, typeSelect(t, false))
	}
	return sqlbuilder.Buildf("(%v)", sqlbuilder.UnionAll(builders...))
}

// applyFilters adds the parameterized predicates to a select over the
// unioned relation. Multiple filters combine with AND; the free-text
// search ORs substring matches across the person and reason columns.
func applyFilters(sb *sqlbuilder.SelectBuilder, filters models.PunishmentFilters) {
	if filters.Player != "" {
		sb.Where(sb.Like("player", "%"+filters.Player+"%"))
	}
	if filters.Staff != "" {
		sb.Where(sb.Like("staff", "%"+filters.Staff+"%"))
	}
	if filters.Search != "" {
		needle := "%" + filters.Search + "%"
		sb.Where(sb.Or(
			sb.Like("player", needle),
			sb.Like("player_uuid", needle),
			sb.Like("staff", needle),
			sb.Like("reason", needle),
		))
	}
}

// normalizeFilters clamps pagination the same way for every caller.
func normalizeFilters(filters models.PunishmentFilters) models.PunishmentFilters {
	if filters.Limit <= 0 {
		filters.Limit = defaultLimit
	}
	if filters.Limit < minLimit {
		filters.Limit = minLimit
	}
	if filters.Limit > maxLimit {
		filters.Limit = maxLimit
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	return filters
}

// QueryPunishments returns one page of the filtered unioned relation plus
// the filtered total and the unfiltered per-type counts. The three query
// groups run concurrently; any failure fails the whole call.
func (r *Reader) QueryPunishments(ctx context.Context, filters models.PunishmentFilters) (*models.PunishmentPage, error) {
	if filters.Type != models.TypeAll {
		if _, ok := punishmentTables[filters.Type]; !ok {
			return nil, fmt.Errorf("%w: %q", models.ErrInvalidType, filters.Type)
		}
	}
	filters = normalizeFilters(filters)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		first  error
		items  []models.PunishmentRecord
		total  int64
		counts models.TypeCounts
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if first == nil {
			first = err
		}
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		var err error
		if items, err = r.queryItems(ctx, filters); err != nil {
			fail(err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if total, err = r.countFiltered(ctx, filters); err != nil {
			fail(err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if counts, err = r.countByType(ctx); err != nil {
			fail(err)
		}
	}()
	wg.Wait()

	if first != nil {
		return nil, first
	}
	if items == nil {
		items = []models.PunishmentRecord{}
	}

	return &models.PunishmentPage{
		Page:   filters.Page,
		Limit:  filters.Limit,
		Total:  total,
		Counts: counts,
		Items:  items,
	}, nil
}

func (r *Reader) queryItems(ctx context.Context, filters models.PunishmentFilters) ([]models.PunishmentRecord, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("type", "id", "player_uuid", "player_name", "player", "staff", "reason", "time", "until")
	sb.From(sb.BuilderAs(unionFor(filters.Type), "punishments"))
	applyFilters(sb, filters)

	column, ok := sortColumns[filters.Sort]
	if !ok {
		// Anything outside the whitelist falls back to date-descending.
		column = "time"
		sb.OrderBy(column).Desc()
	} else if filters.Order == "asc" {
		sb.OrderBy(column).Asc()
	} else {
		sb.OrderBy(column).Desc()
	}

	sb.Limit(filters.Limit).Offset((filters.Page - 1) * filters.Limit)

	query, args := sb.Build()
	log.WithFields(log.Fields{
		"sql":  query,
		"args": args,
	}).Debug("Generated punishment query")

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var records []models.PunishmentRecord
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *Reader) countFiltered(ctx context.Context, filters models.PunishmentFilters) (int64, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(sb.BuilderAs(unionFor(filters.Type), "punishments"))
	applyFilters(sb, filters)

	query, args := sb.Build()

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count error: %w", err)
	}
	return total, nil
}

// countByType counts every table unfiltered, all four queries in flight at
// once, so the caller can render type distribution regardless of filters.
func (r *Reader) countByType(ctx context.Context) (models.TypeCounts, error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		first   error
		results = make(map[models.PunishmentType]int64, len(punishmentTables))
	)

	for typ, table := range punishmentTables {
		wg.Add(1)
		go func(typ models.PunishmentType, table string) {
			defer wg.Done()

			sb := sqlbuilder.NewSelectBuilder()
			sb.Select("COUNT(*)").From(table)
			query, args := sb.Build()

			var count int64
			err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if first == nil {
					first = fmt.Errorf("count %s: %w", table, err)
				}
				return
			}
			results[typ] = count
		}(typ, table)
	}
	wg.Wait()

	if first != nil {
		return models.TypeCounts{}, first
	}

	counts := models.TypeCounts{
		Ban:  results[models.TypeBan],
		Mute: results[models.TypeMute],
		Warn: results[models.TypeWarn],
		Kick: results[models.TypeKick],
	}
	counts.Total = counts.Ban + counts.Mute + counts.Warn + counts.Kick
	return counts, nil
}

// GetPunishment returns the single-record detail view for one punishment.
func (r *Reader) GetPunishment(ctx context.Context, typ models.PunishmentType, id int64) (*models.PunishmentDetail, error) {
	if _, ok := punishmentTables[typ]; !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidType, typ)
	}

	sb := typeSelect(typ, true)
	sb.Where(sb.Equal("p.id", id))
	sb.Limit(1)

	query, args := sb.Build()

	var (
		detail       models.PunishmentDetail
		serverScope  sql.NullString
		serverOrigin sql.NullString
	)
	record, err := scanRecord(r.db.QueryRowContext(ctx, query, args...).Scan, &serverScope, &serverOrigin)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s #%d", ErrNotFound, typ, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	detail.PunishmentRecord = record
	detail.ServerScope = serverScope.String
	detail.ServerOrigin = serverOrigin.String
	return &detail, nil
}

// scanRecord reads the shared column prefix of the unioned relation, plus
// any extra trailing columns the caller selected.
func scanRecord(scan func(...any) error, extra ...any) (models.PunishmentRecord, error) {
	var (
		record     models.PunishmentRecord
		playerUUID sql.NullString
		playerName sql.NullString
		player     sql.NullString
		staff      sql.NullString
		reason     sql.NullString
		until      sql.NullInt64
	)

	dest := []any{
		&record.Type,
		&record.ID,
		&playerUUID,
		&playerName,
		&player,
		&staff,
		&reason,
		&record.Time,
		&until,
	}
	dest = append(dest, extra...)

	if err := scan(dest...); err != nil {
		return models.PunishmentRecord{}, err
	}

	record.PlayerUUID = playerUUID.String
	if playerName.Valid {
		name := playerName.String
		record.PlayerName = &name
	}
	record.Player = player.String
	record.Staff = staff.String
	record.Reason = reason.String
	record.Until = until.Int64

	return record, nil
}
