package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCheckWithoutDatabase(t *testing.T) {
	st := NewService(nil, "local").Check(context.Background())
	if !st.OK || st.Database != "memory" || st.ObjectStore != "local" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestCheckPingsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()
	st := NewService(db, "s3").Check(context.Background())
	if !st.OK || st.Database != "up" {
		t.Fatalf("expected healthy database, got %+v", st)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	st = NewService(db, "s3").Check(context.Background())
	if st.OK || st.Database != "down" {
		t.Fatalf("expected unhealthy database, got %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
