package pgindex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
)

const codeUndefinedTable = "42P01"

// pool is the consumer interface over pgxpool (satisfied by pgxmock in tests).
type pool interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Repo keeps one table per collection with a pgvector column.
type Repo struct {
	pool pool
}

// New wraps an existing pool.
func New(p pool) *Repo {
	return &Repo{pool: p}
}

// Open connects to Postgres and returns a repository owning the pool.
func Open(ctx context.Context, dsn string) (*Repo, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return New(p), nil
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// EnsureIndex creates the vector extension, the collection table and its HNSW index.
func (r *Repo) EnsureIndex(ctx context.Context, collection string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("vector dimension must be positive: %w", domain.ErrInvalidInput)
	}
	if _, err := r.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	for _, stmt := range schemaStatements(collection, dim) {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pgvector: ensure %s: %w", collection, err)
		}
	}
	return nil
}

// Reset replaces the collection table with an empty one inside a single
// transaction; concurrent readers keep seeing the old table until commit.
func (r *Repo) Reset(ctx context.Context, collection string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("vector dimension must be positive: %w", domain.ErrInvalidInput)
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		drop := "DROP TABLE IF EXISTS " + tableIdent(collection)
		if _, err := tx.Exec(ctx, drop); err != nil {
			return fmt.Errorf("pgvector: drop %s: %w", collection, err)
		}
		for _, stmt := range schemaStatements(collection, dim) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("pgvector: recreate %s: %w", collection, err)
			}
		}
		return nil
	})
}

// Upsert inserts or replaces documents in one transaction.
func (r *Repo) Upsert(ctx context.Context, collection string, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (id, content, category, title, tags, embedding)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    content = excluded.content,
    category = excluded.category,
    title = excluded.title,
    tags = excluded.tags,
    embedding = excluded.embedding`, tableIdent(collection))

	return r.inTx(ctx, func(tx pgx.Tx) error {
		for i := range docs {
			d := &docs[i]
			_, err := tx.Exec(ctx, stmt,
				d.ID, d.Content, d.Metadata.Category, d.Metadata.Title,
				d.Metadata.TagList(), pgvector.NewVector(d.Embedding),
			)
			if err != nil {
				return fmt.Errorf("pgvector: upsert %q: %w", d.ID, err)
			}
		}
		return nil
	})
}

// Count returns the number of rows. A missing table counts as empty.
func (r *Repo) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM "+tableIdent(collection)).Scan(&n)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUndefinedTable {
			return 0, nil
		}
		return 0, fmt.Errorf("pgvector: count %s: %w", collection, err)
	}
	return n, nil
}

// Search returns up to k nearest rows by cosine distance, closest first.
func (r *Repo) Search(
	ctx context.Context, collection string, vector []float32, k int, filters filter.Expression,
) ([]result.Hit, error) {
	args := []any{pgvector.NewVector(vector)}
	where, args, err := buildWhere(filters, args)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT id, category, title, array_to_string(tags, '|'), embedding <=> $1 AS distance FROM ")
	b.WriteString(tableIdent(collection))
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	args = append(args, k)
	fmt.Fprintf(&b, " ORDER BY distance ASC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector: search %s: %w", collection, err)
	}
	defer rows.Close()

	hits := make([]result.Hit, 0, k)
	for rows.Next() {
		var (
			id       string
			md       domain.Metadata
			distance float64
		)
		if err := rows.Scan(&id, &md.Category, &md.Title, &md.Tags, &distance); err != nil {
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		hits = append(hits, result.NewHit(id, max(0, 1-distance), md))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector: search rows: %w", err)
	}
	return hits, nil
}

func (r *Repo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("pgvector: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("pgvector: rollback failed: %w; original error: %w", rbErr, err)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("pgvector: commit: %w", commitErr)
		}
	}()
	return fn(tx)
}

func schemaStatements(collection string, dim int) []string {
	table := tableIdent(collection)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    tags TEXT[] NOT NULL DEFAULT '{}',
    embedding vector(%d) NOT NULL
)`, table, dim),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)",
			pgx.Identifier{collection + "_embedding_idx"}.Sanitize(), table),
	}
}

func tableIdent(collection string) string {
	return pgx.Identifier{collection}.Sanitize()
}
