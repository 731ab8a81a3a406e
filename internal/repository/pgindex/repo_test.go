package pgindex

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
)

func newMockRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func expectationsMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// --- EnsureIndex ---

func TestEnsureIndex(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS vector")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "knowledge_base"`) + "(.|\n)*" + regexp.QuoteMeta("vector(4)")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE INDEX IF NOT EXISTS "knowledge_base_embedding_idx" ON "knowledge_base" USING hnsw`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	if err := repo.EnsureIndex(context.Background(), "knowledge_base", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestEnsureIndex_InvalidDim(t *testing.T) {
	repo, mock := newMockRepo(t)
	if err := repo.EnsureIndex(context.Background(), "kb", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	expectationsMet(t, mock)
}

// --- Reset ---

func TestReset_Transactional(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "kb"`)).
		WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "kb"`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE INDEX IF NOT EXISTS`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCommit()

	if err := repo.Reset(context.Background(), "kb", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestReset_RollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "kb"`)).
		WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "kb"`)).
		WillReturnError(errors.New("extension vector is not installed"))
	mock.ExpectRollback()

	if err := repo.Reset(context.Background(), "kb", 4); err == nil {
		t.Fatal("expected error")
	}
	expectationsMet(t, mock)
}

// --- Upsert ---

func TestUpsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	doc := domain.IndexedDocument{
		ID:        "billing_payment",
		Content:   "Payment\n\nbody",
		Embedding: []float32{0.1, 0.2},
		Metadata:  domain.Metadata{Category: "billing", Title: "Payment", Tags: "billing|payment"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "kb"`)).
		WithArgs("billing_payment", "Payment\n\nbody", "billing", "Payment",
			[]string{"billing", "payment"}, pgvector.NewVector([]float32{0.1, 0.2})).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.Upsert(context.Background(), "kb", []domain.IndexedDocument{doc}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestUpsert_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)
	if err := repo.Upsert(context.Background(), "kb", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestUpsert_RollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "kb"`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "kb"`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("expected 4 dimensions, not 2"))
	mock.ExpectRollback()

	docs := []domain.IndexedDocument{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0, 1}},
	}
	if err := repo.Upsert(context.Background(), "kb", docs); err == nil {
		t.Fatal("expected error")
	}
	expectationsMet(t, mock)
}

// --- Count ---

func TestCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "kb"`)).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background(), "kb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("got %d, want 7", n)
	}
	expectationsMet(t, mock)
}

func TestCount_MissingTable(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "kb"`)).
		WillReturnError(&pgconn.PgError{Code: codeUndefinedTable, Message: `relation "kb" does not exist`})

	n, err := repo.Count(context.Background(), "kb")
	if err != nil {
		t.Fatalf("missing table should count as empty: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d, want 0", n)
	}
	expectationsMet(t, mock)
}

func TestCount_Error(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "kb"`)).
		WillReturnError(errors.New("connection reset"))

	if _, err := repo.Count(context.Background(), "kb"); err == nil {
		t.Fatal("expected error")
	}
	expectationsMet(t, mock)
}

// --- Search ---

func TestSearch(t *testing.T) {
	repo, mock := newMockRepo(t)
	vec := []float32{0.3, 0.4}

	rows := mock.NewRows([]string{"id", "category", "title", "tags", "distance"}).
		AddRow("billing_payment", "billing", "Payment", "billing|payment", 0.2).
		AddRow("account_login", "account", "Login", "account|login", 0.7)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, category, title, array_to_string(tags, '|'), embedding <=> $1 AS distance FROM "kb" ORDER BY distance ASC LIMIT $2`,
	)).
		WithArgs(pgvector.NewVector(vec), 3).
		WillReturnRows(rows)

	hits, err := repo.Search(context.Background(), "kb", vec, 3, filter.Expression{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].ID() != "billing_payment" || hits[0].Score() < 0.79 || hits[0].Score() > 0.81 {
		t.Errorf("hit[0] = %s/%f", hits[0].ID(), hits[0].Score())
	}
	if hits[0].Metadata().Category != "billing" || len(hits[0].Metadata().TagList()) != 2 {
		t.Errorf("metadata = %+v", hits[0].Metadata())
	}
	expectationsMet(t, mock)
}

func TestSearch_WithFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	vec := []float32{1, 0}

	billing, _ := filter.NewMatch(filter.KeyCategory, "billing")
	draft, _ := filter.NewMatch(filter.KeyTags, "draft")
	expr, _ := filter.NewExpression([]filter.Condition{billing}, nil, []filter.Condition{draft})

	mock.ExpectQuery(regexp.QuoteMeta(
		`FROM "kb" WHERE (category = $2) AND NOT ($3 = ANY(tags)) ORDER BY distance ASC LIMIT $4`,
	)).
		WithArgs(pgvector.NewVector(vec), "billing", "draft", 3).
		WillReturnRows(mock.NewRows([]string{"id", "category", "title", "tags", "distance"}))

	hits, err := repo.Search(context.Background(), "kb", vec, 3, expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %d, want 0", len(hits))
	}
	expectationsMet(t, mock)
}

func TestSearch_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id").WillReturnError(&pgconn.PgError{Code: codeUndefinedTable})

	if _, err := repo.Search(context.Background(), "kb", []float32{1}, 3, filter.Expression{}); err == nil {
		t.Fatal("expected error")
	}
	expectationsMet(t, mock)
}
