package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/risk-engine/internal/db"
	"github.com/sells-group/risk-engine/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_event":    `SELECT id, type, subtype, title, scope, published_at FROM events WHERE id = $1`,
	"get_analysis": `SELECT id, event_id, summary, created_at FROM analyses WHERE event_id = $1 ORDER BY created_at DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Tests inject pgxmock here.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	type         TEXT NOT NULL,
	subtype      TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	scope        JSONB NOT NULL,
	published_at TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sites (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS suppliers (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS relationships (
	id          TEXT PRIMARY KEY,
	site_id     TEXT NOT NULL,
	supplier_id TEXT NOT NULL,
	data        JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	event_id   TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	risk_score DOUBLE PRECISION NOT NULL,
	summary    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS projections (
	id             TEXT PRIMARY KEY,
	analysis_id    TEXT NOT NULL REFERENCES analyses(id),
	seq            INTEGER NOT NULL,
	entity_id      TEXT NOT NULL,
	entity_kind    TEXT NOT NULL,
	is_concerned   BOOLEAN NOT NULL,
	risk_score_360 DOUBLE PRECISION NOT NULL,
	data           JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
CREATE INDEX IF NOT EXISTS idx_relationships_site_id ON relationships(site_id);
CREATE INDEX IF NOT EXISTS idx_relationships_supplier_id ON relationships(supplier_id);
CREATE INDEX IF NOT EXISTS idx_analyses_event_id ON analyses(event_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analyses_risk_level ON analyses(risk_level);
CREATE INDEX IF NOT EXISTS idx_projections_analysis_id ON projections(analysis_id, seq);
CREATE INDEX IF NOT EXISTS idx_projections_entity_id ON projections(entity_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveEvent(ctx context.Context, event model.Event) error {
	scopeJSON, err := json.Marshal(event.Scope)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal scope")
	}

	var publishedAt *time.Time
	if !event.PublishedAt.IsZero() {
		publishedAt = &event.PublishedAt
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO events (id, type, subtype, title, scope, published_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type, subtype = EXCLUDED.subtype, title = EXCLUDED.title, scope = EXCLUDED.scope, published_at = EXCLUDED.published_at`,
		event.ID, string(event.Type), event.Subtype, event.Title, scopeJSON, publishedAt,
	)
	return eris.Wrapf(err, "postgres: save event %s", event.ID)
}

func (s *PostgresStore) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	var ev model.Event
	var scopeJSON []byte
	var publishedAt *time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT id, type, subtype, title, scope, published_at FROM events WHERE id = $1`,
		eventID,
	).Scan(&ev.ID, &ev.Type, &ev.Subtype, &ev.Title, &scopeJSON, &publishedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: get event %s", eventID)
		}
		return nil, eris.Wrapf(err, "postgres: get event %s", eventID)
	}

	if err := json.Unmarshal(scopeJSON, &ev.Scope); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal scope")
	}
	if publishedAt != nil {
		ev.PublishedAt = *publishedAt
	}
	return &ev, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := `SELECT id, type, subtype, title, scope, published_at FROM events WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Type != "" {
		query += fmt.Sprintf(` AND type = $%d`, argIdx)
		args = append(args, string(filter.Type))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		var scopeJSON []byte
		var publishedAt *time.Time

		if err := rows.Scan(&ev.ID, &ev.Type, &ev.Subtype, &ev.Title, &scopeJSON, &publishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		if err := json.Unmarshal(scopeJSON, &ev.Scope); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal scope")
		}
		if publishedAt != nil {
			ev.PublishedAt = *publishedAt
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list events rows")
}

// SaveGraph upserts the entity graph. Re-importing the same file refreshes
// rows in place, so imports are idempotent.
func (s *PostgresStore) SaveGraph(ctx context.Context, sites []model.Site, suppliers []model.Supplier, rels []model.Relationship) error {
	siteRows := make([][]any, 0, len(sites))
	for _, site := range sites {
		data, err := json.Marshal(site)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal site %s", site.ID)
		}
		siteRows = append(siteRows, []any{site.ID, data})
	}
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "sites",
		Columns:      []string{"id", "data"},
		ConflictKeys: []string{"id"},
	}, siteRows); err != nil {
		return eris.Wrap(err, "postgres: upsert sites")
	}

	supplierRows := make([][]any, 0, len(suppliers))
	for _, sup := range suppliers {
		data, err := json.Marshal(sup)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal supplier %s", sup.ID)
		}
		supplierRows = append(supplierRows, []any{sup.ID, data})
	}
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "suppliers",
		Columns:      []string{"id", "data"},
		ConflictKeys: []string{"id"},
	}, supplierRows); err != nil {
		return eris.Wrap(err, "postgres: upsert suppliers")
	}

	relRows := make([][]any, 0, len(rels))
	for _, rel := range rels {
		if rel.ID == "" {
			rel.ID = uuid.New().String()
		}
		data, err := json.Marshal(rel)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal relationship %s", rel.ID)
		}
		relRows = append(relRows, []any{rel.ID, rel.SiteID, rel.SupplierID, data})
	}
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "relationships",
		Columns:      []string{"id", "site_id", "supplier_id", "data"},
		ConflictKeys: []string{"id"},
	}, relRows); err != nil {
		return eris.Wrap(err, "postgres: upsert relationships")
	}

	return nil
}

func (s *PostgresStore) ListSites(ctx context.Context) ([]model.Site, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM sites ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sites")
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan site")
		}
		var site model.Site
		if err := json.Unmarshal(data, &site); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal site")
		}
		sites = append(sites, site)
	}
	return sites, eris.Wrap(rows.Err(), "postgres: list sites rows")
}

func (s *PostgresStore) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM suppliers ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suppliers")
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan supplier")
		}
		var sup model.Supplier
		if err := json.Unmarshal(data, &sup); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal supplier")
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, eris.Wrap(rows.Err(), "postgres: list suppliers rows")
}

func (s *PostgresStore) ListRelationships(ctx context.Context) ([]model.Relationship, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM relationships ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list relationships")
	}
	defer rows.Close()

	var rels []model.Relationship
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan relationship")
		}
		var rel model.Relationship
		if err := json.Unmarshal(data, &rel); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal relationship")
		}
		rels = append(rels, rel)
	}
	return rels, eris.Wrap(rows.Err(), "postgres: list relationships rows")
}

// SaveAnalysis persists one projection run: a summary row plus a bulk COPY of
// the per-entity projections, seq preserving engine order.
func (s *PostgresStore) SaveAnalysis(ctx context.Context, summary model.EventRiskSummary, projections []model.Projection) (*model.Analysis, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal summary")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, event_id, risk_level, risk_score, summary, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, summary.EventID, string(summary.OverallRiskLevel), summary.OverallRiskScore360, summaryJSON, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert analysis for event %s", summary.EventID)
	}

	rows := make([][]any, 0, len(projections))
	for i, p := range projections {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: marshal projection %s", p.EntityID)
		}
		rows = append(rows, []any{
			uuid.New().String(), id, i, p.EntityID, string(p.EntityKind), p.IsConcerned, p.RiskScore360, data,
		})
	}
	cols := []string{"id", "analysis_id", "seq", "entity_id", "entity_kind", "is_concerned", "risk_score_360", "data"}
	if _, err := db.CopyFrom(ctx, s.pool, "projections", cols, rows); err != nil {
		return nil, eris.Wrapf(err, "postgres: copy projections for analysis %s", id)
	}

	return &model.Analysis{
		ID:          id,
		EventID:     summary.EventID,
		Summary:     summary,
		Projections: projections,
		CreatedAt:   now,
	}, nil
}

// GetAnalysis returns the most recent analysis for an event, projections
// included.
func (s *PostgresStore) GetAnalysis(ctx context.Context, eventID string) (*model.Analysis, error) {
	var a model.Analysis
	var summaryJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, event_id, summary, created_at FROM analyses WHERE event_id = $1 ORDER BY created_at DESC LIMIT 1`,
		eventID,
	).Scan(&a.ID, &a.EventID, &summaryJSON, &a.CreatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: get analysis for event %s", eventID)
		}
		return nil, eris.Wrapf(err, "postgres: get analysis for event %s", eventID)
	}
	if err := json.Unmarshal(summaryJSON, &a.Summary); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal summary")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT data FROM projections WHERE analysis_id = $1 ORDER BY seq`,
		a.ID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get projections for analysis %s", a.ID)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan projection")
		}
		var p model.Projection
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal projection")
		}
		a.Projections = append(a.Projections, p)
	}
	return &a, eris.Wrap(rows.Err(), "postgres: projections rows")
}

// ListAnalyses returns summary rows only; projections load via GetAnalysis.
func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, event_id, summary, created_at FROM analyses WHERE true`
	args := []any{}
	argIdx := 1

	if filter.EventID != "" {
		query += fmt.Sprintf(` AND event_id = $%d`, argIdx)
		args = append(args, filter.EventID)
		argIdx++
	}
	if filter.Level != "" {
		query += fmt.Sprintf(` AND risk_level = $%d`, argIdx)
		args = append(args, string(filter.Level))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		var a model.Analysis
		var summaryJSON []byte
		if err := rows.Scan(&a.ID, &a.EventID, &summaryJSON, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		if err := json.Unmarshal(summaryJSON, &a.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		analyses = append(analyses, a)
	}
	return analyses, eris.Wrap(rows.Err(), "postgres: list analyses rows")
}
