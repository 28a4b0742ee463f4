package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB          *sql.DB
	ObjectStore string
}

// NewService constructs a new health service. A nil db reports the memory backend.
func NewService(db *sql.DB, objectStore string) *Service {
	return &Service{DB: db, ObjectStore: objectStore}
}

// Status is the health payload.
type Status struct {
	OK          bool   `json:"ok"`
	Database    string `json:"database"`
	ObjectStore string `json:"objectStore,omitempty"`
}

// Check pings the database. OK is false only when a configured database is unreachable.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{OK: true, Database: "memory", ObjectStore: s.ObjectStore}
	if s.DB == nil {
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		st.OK = false
		st.Database = "down"
		return st
	}
	st.Database = "up"
	return st
}
