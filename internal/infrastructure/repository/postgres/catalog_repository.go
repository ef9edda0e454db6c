package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

const (
	defaultPageSize   = 500
	defaultMatchLimit = 200
)

const recordColumns = `id, canonical_code, display_name, alt_name, category, function_tags, benefits,
	supplier, cost, currency, description, available, updated_at`

type CatalogRepository struct {
	db         *sql.DB
	pageSize   int
	matchLimit int
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db, pageSize: defaultPageSize, matchLimit: defaultMatchLimit}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CatalogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS catalog_records (
	id TEXT PRIMARY KEY,
	canonical_code TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	alt_name TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	function_tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	benefits JSONB NOT NULL DEFAULT '[]'::jsonb,
	supplier TEXT NOT NULL DEFAULT '',
	cost DOUBLE PRECISION NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	available BOOLEAN NOT NULL DEFAULT false,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_catalog_records_code ON catalog_records(lower(canonical_code));
CREATE INDEX IF NOT EXISTS idx_catalog_records_display_name ON catalog_records(lower(display_name));
CREATE INDEX IF NOT EXISTS idx_catalog_records_alt_name ON catalog_records(lower(alt_name));
CREATE INDEX IF NOT EXISTS idx_catalog_records_available ON catalog_records(available) WHERE available;
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// GetByCodeOrName returns case-insensitive equality hits first, then ILIKE
// substring hits.
func (r *CatalogRepository) GetByCodeOrName(ctx context.Context, collection domain.CollectionRef, text string) ([]domain.RecordMatch, error) {
	needle := strings.TrimSpace(text)
	if needle == "" {
		return []domain.RecordMatch{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+recordColumns+`,
	(lower(canonical_code) = lower($1) OR lower(display_name) = lower($1) OR lower(alt_name) = lower($1)) AS exact
FROM catalog_records
WHERE ($2 = false OR available)
	AND (
		lower(canonical_code) = lower($1) OR lower(display_name) = lower($1) OR lower(alt_name) = lower($1)
		OR canonical_code ILIKE $3 OR display_name ILIKE $3 OR alt_name ILIKE $3
	)
ORDER BY exact DESC, id
LIMIT $4
`, needle, collection.AvailableOnly, "%"+escapeLike(needle)+"%", r.matchLimit)
	if err != nil {
		return nil, fmt.Errorf("query records by code or name: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RecordMatch, 0)
	for rows.Next() {
		var match domain.RecordMatch
		record, err := scanRecord(rows, &match.Exact)
		if err != nil {
			return nil, err
		}
		match.Record = *record
		out = append(out, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// ListAll pages by id so a long scan never holds one huge result set.
func (r *CatalogRepository) ListAll(ctx context.Context, collection domain.CollectionRef, visit func(domain.CatalogRecord) error) error {
	after := ""
	for {
		page, err := r.listPage(ctx, collection.AvailableOnly, after)
		if err != nil {
			return err
		}
		for _, record := range page {
			if err := visit(record); err != nil {
				return err
			}
		}
		if len(page) < r.pageSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}

func (r *CatalogRepository) listPage(ctx context.Context, availableOnly bool, after string) ([]domain.CatalogRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+recordColumns+`
FROM catalog_records
WHERE ($1 = false OR available) AND id > $2
ORDER BY id
LIMIT $3
`, availableOnly, after, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	page := make([]domain.CatalogRecord, 0, r.pageSize)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		page = append(page, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return page, nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*domain.CatalogRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+recordColumns+`
FROM catalog_records
WHERE id = $1
`, id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", fmt.Errorf("record %s", id))
		}
		return nil, err
	}
	return record, nil
}

func (r *CatalogRepository) UpsertRecord(ctx context.Context, record domain.CatalogRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	functionTags, err := marshalList(record.FunctionTags)
	if err != nil {
		return fmt.Errorf("marshal function tags: %w", err)
	}
	benefits, err := marshalList(record.Benefits)
	if err != nil {
		return fmt.Errorf("marshal benefits: %w", err)
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO catalog_records (`+recordColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
	canonical_code = EXCLUDED.canonical_code,
	display_name = EXCLUDED.display_name,
	alt_name = EXCLUDED.alt_name,
	category = EXCLUDED.category,
	function_tags = EXCLUDED.function_tags,
	benefits = EXCLUDED.benefits,
	supplier = EXCLUDED.supplier,
	cost = EXCLUDED.cost,
	currency = EXCLUDED.currency,
	description = EXCLUDED.description,
	available = EXCLUDED.available,
	updated_at = EXCLUDED.updated_at
`,
		record.ID, record.CanonicalCode, record.DisplayName, record.AltName, record.Category,
		functionTags, benefits, record.Supplier, record.Cost, record.Currency, record.Description,
		record.Available, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, extra ...any) (*domain.CatalogRecord, error) {
	var record domain.CatalogRecord
	var functionTagsRaw, benefitsRaw []byte

	dest := []any{
		&record.ID, &record.CanonicalCode, &record.DisplayName, &record.AltName, &record.Category,
		&functionTagsRaw, &benefitsRaw, &record.Supplier, &record.Cost, &record.Currency,
		&record.Description, &record.Available, &record.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}
	if err := unmarshalList(functionTagsRaw, &record.FunctionTags); err != nil {
		return nil, fmt.Errorf("unmarshal function tags: %w", err)
	}
	if err := unmarshalList(benefitsRaw, &record.Benefits); err != nil {
		return nil, fmt.Errorf("unmarshal benefits: %w", err)
	}
	return &record, nil
}

func marshalList(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func unmarshalList(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
