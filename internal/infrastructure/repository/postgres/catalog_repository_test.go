package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

var columns = []string{
	"id", "canonical_code", "display_name", "alt_name", "category", "function_tags", "benefits",
	"supplier", "cost", "currency", "description", "available", "updated_at",
}

func newRepoWithMock(t *testing.T) (*CatalogRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewCatalogRepository(db), mock, func() { _ = db.Close() }
}

func recordRow(id, code, name string, available bool) []driver.Value {
	return []driver.Value{
		id, code, name, "", "humectant", []byte(`["humectant"]`), []byte(`["moisturizing"]`),
		"Acme", 1250.0, "THB", "", available, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM catalog_records").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDDecodesJSONLists(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM catalog_records").
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(recordRow("rec-1", "RM000001", "Hyaluronic Acid", true)...))

	record, err := repo.GetByID(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if record.CanonicalCode != "RM000001" || len(record.FunctionTags) != 1 || record.Benefits[0] != "moisturizing" || !record.Available {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestGetByCodeOrNameScopesAndEscapes(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows(append(columns, "exact")).
		AddRow(append(recordRow("rec-1", "RM000001", "Hyaluronic Acid", true), true)...).
		AddRow(append(recordRow("rec-2", "RM000002", "Sodium Hyaluronate 1%", true), false)...)
	mock.ExpectQuery("ORDER BY exact DESC").
		WithArgs("Hyaluronic Acid", true, `%Hyaluronic Acid%`, defaultMatchLimit).
		WillReturnRows(rows)

	matches, err := repo.GetByCodeOrName(context.Background(), domain.CollectionRef{Name: "available", AvailableOnly: true}, "  Hyaluronic Acid ")
	if err != nil {
		t.Fatalf("GetByCodeOrName() error = %v", err)
	}
	if len(matches) != 2 || !matches[0].Exact || matches[1].Exact {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}

	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("escapeLike() = %q", got)
	}
}

func TestGetByCodeOrNameEmptyTextSkipsQuery(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	matches, err := repo.GetByCodeOrName(context.Background(), domain.CollectionRef{}, "   ")
	if err != nil || len(matches) != 0 {
		t.Fatalf("expected empty result, got %v %v", matches, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListAllPagesByID(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()
	repo.pageSize = 2

	mock.ExpectQuery("ORDER BY id").
		WithArgs(false, "", 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(recordRow("a", "RM1", "A", true)...).
			AddRow(recordRow("b", "RM2", "B", false)...))
	mock.ExpectQuery("ORDER BY id").
		WithArgs(false, "b", 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(recordRow("c", "RM3", "C", true)...))

	var seen []string
	err := repo.ListAll(context.Background(), domain.CollectionRef{Name: "full"}, func(r domain.CatalogRecord) error {
		seen = append(seen, r.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(seen) != 3 || seen[2] != "c" {
		t.Fatalf("unexpected scan order: %v", seen)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListAllStopsOnVisitorError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()
	repo.pageSize = 2

	mock.ExpectQuery("ORDER BY id").
		WithArgs(true, "", 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(recordRow("a", "RM1", "A", true)...).
			AddRow(recordRow("b", "RM2", "B", true)...))

	stop := errors.New("stop")
	err := repo.ListAll(context.Background(), domain.CollectionRef{AvailableOnly: true}, func(domain.CatalogRecord) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected visitor error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertRecordRejectsMalformed(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	err := repo.UpsertRecord(context.Background(), domain.CatalogRecord{ID: "rec-1"})
	if !domain.IsKind(err, domain.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertRecordWritesJSONLists(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("rec-1", "RM000001", "Hyaluronic Acid", "", "", []byte(`["humectant"]`), []byte(`[]`),
			"", 0.0, "", "", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertRecord(context.Background(), domain.CatalogRecord{
		ID:            "rec-1",
		CanonicalCode: "RM000001",
		DisplayName:   "Hyaluronic Acid",
		FunctionTags:  []string{"humectant"},
		Available:     true,
	})
	if err != nil {
		t.Fatalf("UpsertRecord() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs(int64(2026101801)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS catalog_records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
