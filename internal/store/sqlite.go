package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/risk-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the local
// single-analyst mode; the schema mirrors the Postgres one with TEXT JSON
// columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	type         TEXT NOT NULL,
	subtype      TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	scope        TEXT NOT NULL,
	published_at DATETIME,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sites (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS suppliers (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS relationships (
	id          TEXT PRIMARY KEY,
	site_id     TEXT NOT NULL,
	supplier_id TEXT NOT NULL,
	data        TEXT NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	event_id   TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	risk_score REAL NOT NULL,
	summary    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS projections (
	id             TEXT PRIMARY KEY,
	analysis_id    TEXT NOT NULL REFERENCES analyses(id),
	seq            INTEGER NOT NULL,
	entity_id      TEXT NOT NULL,
	entity_kind    TEXT NOT NULL,
	is_concerned   INTEGER NOT NULL,
	risk_score_360 REAL NOT NULL,
	data           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
CREATE INDEX IF NOT EXISTS idx_relationships_site_id ON relationships(site_id);
CREATE INDEX IF NOT EXISTS idx_relationships_supplier_id ON relationships(supplier_id);
CREATE INDEX IF NOT EXISTS idx_analyses_event_id ON analyses(event_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_projections_analysis_id ON projections(analysis_id, seq);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveEvent(ctx context.Context, event model.Event) error {
	scopeJSON, err := json.Marshal(event.Scope)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal scope")
	}

	var publishedAt *time.Time
	if !event.PublishedAt.IsZero() {
		publishedAt = &event.PublishedAt
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO events (id, type, subtype, title, scope, published_at) VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.Type), event.Subtype, event.Title, string(scopeJSON), publishedAt,
	)
	return eris.Wrapf(err, "sqlite: save event %s", event.ID)
}

func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	var ev model.Event
	var scopeJSON string
	var publishedAt *time.Time

	err := s.db.QueryRowContext(ctx,
		`SELECT id, type, subtype, title, scope, published_at FROM events WHERE id = ?`,
		eventID,
	).Scan(&ev.ID, &ev.Type, &ev.Subtype, &ev.Title, &scopeJSON, &publishedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: get event %s", eventID)
		}
		return nil, eris.Wrapf(err, "sqlite: get event %s", eventID)
	}

	if err := json.Unmarshal([]byte(scopeJSON), &ev.Scope); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal scope")
	}
	if publishedAt != nil {
		ev.PublishedAt = *publishedAt
	}
	return &ev, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := `SELECT id, type, subtype, title, scope, published_at FROM events WHERE true`
	args := []any{}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		var scopeJSON string
		var publishedAt *time.Time

		if err := rows.Scan(&ev.ID, &ev.Type, &ev.Subtype, &ev.Title, &scopeJSON, &publishedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		if err := json.Unmarshal([]byte(scopeJSON), &ev.Scope); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal scope")
		}
		if publishedAt != nil {
			ev.PublishedAt = *publishedAt
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list events rows")
}

func (s *SQLiteStore) SaveGraph(ctx context.Context, sites []model.Site, suppliers []model.Supplier, rels []model.Relationship) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin graph import")
	}
	defer tx.Rollback()

	for _, site := range sites {
		data, err := json.Marshal(site)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal site %s", site.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO sites (id, data) VALUES (?, ?)`,
			site.ID, string(data),
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert site %s", site.ID)
		}
	}
	for _, sup := range suppliers {
		data, err := json.Marshal(sup)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal supplier %s", sup.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO suppliers (id, data) VALUES (?, ?)`,
			sup.ID, string(data),
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert supplier %s", sup.ID)
		}
	}
	for _, rel := range rels {
		if rel.ID == "" {
			rel.ID = uuid.New().String()
		}
		data, err := json.Marshal(rel)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal relationship %s", rel.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO relationships (id, site_id, supplier_id, data) VALUES (?, ?, ?, ?)`,
			rel.ID, rel.SiteID, rel.SupplierID, string(data),
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert relationship %s", rel.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit graph import")
}

func (s *SQLiteStore) ListSites(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	err := s.listJSON(ctx, `SELECT data FROM sites ORDER BY id`, "site", func(data []byte) error {
		var site model.Site
		if err := json.Unmarshal(data, &site); err != nil {
			return err
		}
		sites = append(sites, site)
		return nil
	})
	return sites, err
}

func (s *SQLiteStore) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := s.listJSON(ctx, `SELECT data FROM suppliers ORDER BY id`, "supplier", func(data []byte) error {
		var sup model.Supplier
		if err := json.Unmarshal(data, &sup); err != nil {
			return err
		}
		suppliers = append(suppliers, sup)
		return nil
	})
	return suppliers, err
}

func (s *SQLiteStore) ListRelationships(ctx context.Context) ([]model.Relationship, error) {
	var rels []model.Relationship
	err := s.listJSON(ctx, `SELECT data FROM relationships ORDER BY id`, "relationship", func(data []byte) error {
		var rel model.Relationship
		if err := json.Unmarshal(data, &rel); err != nil {
			return err
		}
		rels = append(rels, rel)
		return nil
	})
	return rels, err
}

// listJSON runs a single-column JSON query and feeds each row to decode.
func (s *SQLiteStore) listJSON(ctx context.Context, query, what string, decode func([]byte) error, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: list %ss", what)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return eris.Wrapf(err, "sqlite: scan %s", what)
		}
		if err := decode([]byte(data)); err != nil {
			return eris.Wrapf(err, "sqlite: unmarshal %s", what)
		}
	}
	return eris.Wrapf(rows.Err(), "sqlite: list %ss rows", what)
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, summary model.EventRiskSummary, projections []model.Projection) (*model.Analysis, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal summary")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin analysis")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analyses (id, event_id, risk_level, risk_score, summary, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, summary.EventID, string(summary.OverallRiskLevel), summary.OverallRiskScore360, string(summaryJSON), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert analysis for event %s", summary.EventID)
	}

	for i, p := range projections {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: marshal projection %s", p.EntityID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projections (id, analysis_id, seq, entity_id, entity_kind, is_concerned, risk_score_360, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), id, i, p.EntityID, string(p.EntityKind), p.IsConcerned, p.RiskScore360, string(data),
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert projection %s", p.EntityID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit analysis")
	}

	return &model.Analysis{
		ID:          id,
		EventID:     summary.EventID,
		Summary:     summary,
		Projections: projections,
		CreatedAt:   now,
	}, nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, eventID string) (*model.Analysis, error) {
	var a model.Analysis
	var summaryJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, event_id, summary, created_at FROM analyses WHERE event_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		eventID,
	).Scan(&a.ID, &a.EventID, &summaryJSON, &a.CreatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: get analysis for event %s", eventID)
		}
		return nil, eris.Wrapf(err, "sqlite: get analysis for event %s", eventID)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &a.Summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}

	err = s.listJSON(ctx,
		`SELECT data FROM projections WHERE analysis_id = ? ORDER BY seq`,
		"projection", func(data []byte) error {
			var p model.Projection
			if err := json.Unmarshal(data, &p); err != nil {
				return err
			}
			a.Projections = append(a.Projections, p)
			return nil
		}, a.ID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, event_id, summary, created_at FROM analyses WHERE true`
	args := []any{}

	if filter.EventID != "" {
		query += ` AND event_id = ?`
		args = append(args, filter.EventID)
	}
	if filter.Level != "" {
		query += ` AND risk_level = ?`
		args = append(args, string(filter.Level))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		var a model.Analysis
		var summaryJSON string
		if err := rows.Scan(&a.ID, &a.EventID, &summaryJSON, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		if err := json.Unmarshal([]byte(summaryJSON), &a.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		analyses = append(analyses, a)
	}
	return analyses, eris.Wrap(rows.Err(), "sqlite: list analyses rows")
}
