// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package catalog serves the reference ("pro") swing library: entries live in
// a SQLite table, media links are signed and expire, and a static list stands
// in whenever the table cannot be read or is empty.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/swinglab/internal/cache"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	xglog "github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/metrics"
	"github.com/ManuGH/swinglab/internal/persistence/sqlite"
	"github.com/ManuGH/swinglab/internal/telemetry"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Source says where a listing came from.
type Source string

const (
	SourceDB     Source = "db"
	SourceStatic Source = "static"
	SourceCache  Source = "cache"
)

const (
	schemaVersion = 1
	listCacheKey  = "catalog:pro_swings:v1"
)

const schema = `
CREATE TABLE IF NOT EXISTS pro_swings (
	id               TEXT PRIMARY KEY,
	player_name      TEXT NOT NULL,
	swing_name       TEXT NOT NULL DEFAULT '',
	file_name        TEXT NOT NULL UNIQUE,
	duration_seconds REAL,
	club             TEXT NOT NULL DEFAULT '',
	year             INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pro_swings_player ON pro_swings(player_name);
`

var (
	ErrNotFound     = errors.New("pro swing not found")
	ErrInvalidEntry = errors.New("invalid pro swing")
	ErrUnavailable  = errors.New("catalog storage unavailable")
)

// record is the stored form of an entry; URIs are derived on the way out.
type record struct {
	ID       string   `json:"id"`
	Player   string   `json:"player"`
	Name     string   `json:"name"`
	FileName string   `json:"fileName"`
	Duration *float64 `json:"duration,omitempty"`
	Club     string   `json:"club,omitempty"`
	Year     int      `json:"year,omitempty"`
}

type Options struct {
	DBPath   string
	MediaDir string
	Signer   *Signer
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *zerolog.Logger
}

// Catalog lists and registers pro swings.
type Catalog struct {
	db       *sql.DB
	mediaDir string
	signer   *Signer
	cache    cache.Cache
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// Open opens the catalog database. A database that cannot be opened is not
// fatal: the catalog then serves the static list only.
func Open(ctx context.Context, opts Options) *Catalog {
	c := &Catalog{
		mediaDir: opts.MediaDir,
		signer:   opts.Signer,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   xglog.WithComponent("catalog"),
		now:      time.Now,
	}
	if opts.Logger != nil {
		c.logger = *opts.Logger
	}
	if c.signer == nil {
		c.signer = NewSigner("", "", 0)
	}
	if c.cache == nil {
		c.cache = cache.NopCache{}
	}

	if opts.DBPath == "" {
		return c
	}
	db, err := sqlite.Open(opts.DBPath, sqlite.DefaultConfig())
	if err == nil {
		err = sqlite.Migrate(ctx, db, schemaVersion, schema)
		if err != nil {
			_ = db.Close()
		}
	}
	if err != nil {
		c.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "catalog.db_unavailable").
			Str(xglog.FieldPath, opts.DBPath).
			Msg("catalog database unavailable, serving static pro swings")
		return c
	}
	c.db = db
	return c
}

// Close releases the database and cache.
func (c *Catalog) Close() error {
	var err error
	if c.db != nil {
		err = c.db.Close()
	}
	return errors.Join(err, c.cache.Close())
}

// Ping reports whether the catalog database answers. A catalog without a
// database still serves the static list, so callers treat failure as degraded.
func (c *Catalog) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("%w: database not open", ErrUnavailable)
	}
	return c.db.PingContext(ctx)
}

// List returns the pro swings ordered by player name with fresh signed links.
func (c *Catalog) List(ctx context.Context) ([]model.ProSwing, Source) {
	ctx, span := telemetry.Tracer("catalog").Start(ctx, "catalog.list")
	defer span.End()

	swings, src := c.list(ctx)
	span.SetAttributes(telemetry.CatalogAttributes(string(src), len(swings))...)
	return swings, src
}

func (c *Catalog) list(ctx context.Context) ([]model.ProSwing, Source) {
	logger := xglog.WithContext(ctx, c.logger)

	if recs, ok := cache.GetJSON[[]record](ctx, c.cache, listCacheKey); ok && len(recs) > 0 {
		metrics.RecordCatalogList(string(SourceCache))
		return c.present(recs), SourceCache
	}

	recs, err := c.query(ctx)
	switch {
	case err != nil:
		trace.SpanFromContext(ctx).SetAttributes(telemetry.ErrorAttributes(err, "catalog_query")...)
		logger.Error().Err(err).Str(xglog.FieldEvent, "catalog.query_failed").Msg("error querying pro swings, using static data")
	case len(recs) == 0:
		logger.Warn().Str(xglog.FieldEvent, "catalog.empty").Msg("no pro swing videos found in database, using static data")
	default:
		if err := cache.SetJSON(ctx, c.cache, listCacheKey, recs, c.cacheTTL); err != nil {
			logger.Debug().Err(err).Msg("catalog cache fill skipped")
		}
		metrics.RecordCatalogList(string(SourceDB))
		return c.present(recs), SourceDB
	}

	metrics.RecordCatalogList(string(SourceStatic))
	return staticSwings(), SourceStatic
}

// Get returns one entry by id, looking at the static list when the id is not
// in the database.
func (c *Catalog) Get(ctx context.Context, id string) (model.ProSwing, error) {
	swings, _ := c.List(ctx)
	for _, s := range swings {
		if s.ID == id {
			return s, nil
		}
	}
	return model.ProSwing{}, ErrNotFound
}

func (c *Catalog) query(ctx context.Context) ([]record, error) {
	if c.db == nil {
		return nil, errors.New("catalog database not open")
	}
	rows, err := c.db.QueryContext(ctx, `
	SELECT id, player_name, swing_name, file_name, duration_seconds, club, year
	FROM pro_swings ORDER BY player_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record
	for rows.Next() {
		var r record
		var dur sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Player, &r.Name, &r.FileName, &dur, &r.Club, &r.Year); err != nil {
			return nil, err
		}
		if dur.Valid {
			d := dur.Float64
			r.Duration = &d
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortByPlayer(out)
	return out, nil
}

// sortByPlayer orders by player name using English collation, so accented
// names sort with their base letters rather than after "Z".
func sortByPlayer(recs []record) {
	col := collate.New(language.English, collate.Loose)
	sort.SliceStable(recs, func(i, j int) bool {
		return col.CompareString(recs[i].Player, recs[j].Player) < 0
	})
}

func (c *Catalog) present(recs []record) []model.ProSwing {
	out := make([]model.ProSwing, 0, len(recs))
	for _, r := range recs {
		link, _ := c.signer.Sign(r.FileName)
		name := r.Name
		if name == "" {
			name = r.Player
		}
		var dur *float64
		if r.Duration != nil {
			d := *r.Duration
			dur = &d
		}
		out = append(out, model.ProSwing{
			VideoSource: model.VideoSource{
				ID:        r.ID,
				URI:       link,
				Thumbnail: link,
				Name:      name,
				Duration:  dur,
			},
			Golfer: r.Player,
			Club:   r.Club,
			Year:   r.Year,
		})
	}
	return out
}

// RegisterRequest describes a new pro swing.
type RegisterRequest struct {
	Player   string   `json:"player"`
	Name     string   `json:"name,omitempty"`
	Club     string   `json:"club,omitempty"`
	Year     int      `json:"year,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// Register stores a new entry. Its media file name is derived from the player
// name and the registration time; the media itself is uploaded with PutMedia.
func (c *Catalog) Register(ctx context.Context, req RegisterRequest) (model.ProSwing, error) {
	if c.db == nil {
		return model.ProSwing{}, fmt.Errorf("%w: database not open", ErrUnavailable)
	}
	player := strings.TrimSpace(req.Player)
	if player == "" {
		return model.ProSwing{}, fmt.Errorf("%w: player is required", ErrInvalidEntry)
	}
	if req.Duration != nil && !(*req.Duration >= 0) {
		return model.ProSwing{}, fmt.Errorf("%w: duration must be >= 0", ErrInvalidEntry)
	}

	now := c.now()
	r := record{
		ID:       uuid.NewString(),
		Player:   player,
		Name:     strings.TrimSpace(req.Name),
		FileName: MediaFileName(player, now),
		Duration: req.Duration,
		Club:     req.Club,
		Year:     req.Year,
	}
	var dur any
	if r.Duration != nil {
		dur = *r.Duration
	}
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO pro_swings (id, player_name, swing_name, file_name, duration_seconds, club, year, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Player, r.Name, r.FileName, dur, r.Club, r.Year, now.UTC().Format(time.RFC3339))
	if err != nil {
		return model.ProSwing{}, fmt.Errorf("insert pro swing: %w", err)
	}
	c.cache.Delete(ctx, listCacheKey)

	logger := xglog.WithContext(ctx, c.logger)
	logger.Info().
		Str(xglog.FieldEvent, "catalog.registered").
		Str(xglog.FieldVideoID, r.ID).
		Str("file_name", r.FileName).
		Msg("pro swing registered")
	return c.present([]record{r})[0], nil
}

var nonSnake = regexp.MustCompile(`\s+`)

// MediaFileName builds "<player_snake>_<unix_ms>.mp4".
func MediaFileName(player string, at time.Time) string {
	snake := nonSnake.ReplaceAllString(strings.ToLower(strings.TrimSpace(player)), "_")
	return snake + "_" + strconv.FormatInt(at.UnixMilli(), 10) + ".mp4"
}

// ParseMediaFileName recovers the player label from a media file name.
func ParseMediaFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), ".mp4")
	if i := strings.LastIndexByte(base, '_'); i > 0 {
		if _, err := strconv.ParseInt(base[i+1:], 10, 64); err == nil {
			base = base[:i]
		}
	}
	base = strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
	if base == "" {
		return "Professional"
	}
	return base
}

// PutMedia stores the media for entry id atomically under the media dir.
func (c *Catalog) PutMedia(ctx context.Context, id string, body io.Reader) error {
	if c.db == nil || c.mediaDir == "" {
		return fmt.Errorf("%w: media storage not configured", ErrUnavailable)
	}
	var fileName string
	err := c.db.QueryRowContext(ctx, `SELECT file_name FROM pro_swings WHERE id = ?`, id).Scan(&fileName)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.mediaDir, 0o750); err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(filepath.Join(c.mediaDir, fileName))
	if err != nil {
		return fmt.Errorf("create pending media file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			xglog.FromContext(ctx).Debug().Err(err).Msg("cleanup pending media file")
		}
	}()
	if _, err := io.Copy(pending, body); err != nil {
		return fmt.Errorf("write media: %w", err)
	}
	return pending.CloseAtomicallyReplace()
}

// MediaPath resolves a signed media link to a local file. The query must carry
// a valid, unexpired signature for name.
func (c *Catalog) MediaPath(name string, q url.Values) (string, error) {
	if c.mediaDir == "" || name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrNotFound
	}
	if err := c.signer.Verify(name, q); err != nil {
		return "", err
	}
	return filepath.Join(c.mediaDir, name), nil
}
