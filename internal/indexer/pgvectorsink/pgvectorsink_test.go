package pgvectorsink

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"newsingest/internal/entity"
)

func TestSink_BulkUpsert_ExecutesUpsertPerDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	sink := New(db, "index_documents")

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO index_documents"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO index_documents")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO index_documents")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	docs := []entity.IndexDocument{
		{ID: "001_0001", OID: "001", AID: "0001", Title: "t1", Category: entity.Politics, Embedding: []float32{0.1, 0.2}},
		{ID: "001_0002", OID: "001", AID: "0002", Title: "t2", Category: entity.Economy, Embedding: []float32{0.3, 0.4}},
	}
	if err := sink.BulkUpsert(context.Background(), docs); err != nil {
		t.Fatalf("bulk upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSink_BulkUpsert_EmptyInputIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	sink := New(db, "index_documents")
	if err := sink.BulkUpsert(context.Background(), nil); err != nil {
		t.Errorf("expected no error for an empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expected no queries for an empty batch: %v", err)
	}
}

func TestSink_BulkUpsert_RollsBackOnExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	sink := New(db, "index_documents")

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO index_documents"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO index_documents")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	docs := []entity.IndexDocument{{ID: "001_0001", Category: entity.Politics}}
	if err := sink.BulkUpsert(context.Background(), docs); err == nil {
		t.Error("expected an error when the exec fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSink_SearchSimilar_ReturnsIDsInRankOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	sink := New(db, "index_documents")

	rows := sqlmock.NewRows([]string{"id"}).AddRow("001_0001").AddRow("001_0002")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM index_documents")).WillReturnRows(rows)

	ids, err := sink.SearchSimilar(context.Background(), []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("search similar: %v", err)
	}
	if len(ids) != 2 || ids[0] != "001_0001" || ids[1] != "001_0002" {
		t.Errorf("unexpected ids: %v", ids)
	}
}
