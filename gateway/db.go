package gateway

import (
	"fmt"
	"net/http"
	"time"
)

type dbQueryRequest struct {
	SQL      string `json:"sql"`
	Database string `json:"database"`
}

type dbQueryResponse struct {
	Rows     []map[string]string `json:"rows"`
	Columns  []string            `json:"columns"`
	RowCount int                 `json:"row_count"`
}

func (s *Server) dbQuery(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	var req dbQueryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SQL == "" {
		writeError(w, http.StatusBadRequest, "sql is required")
		return
	}

	start := time.Now()
	rows, columns, err := s.db.Query(r.Context(), req.SQL, req.Database)
	s.recordDBOp("query", start)
	if err != nil {
		s.log.Error("db query failed", "error", err)
		writeError(w, statusFor(err), "query failed")
		return
	}

	writeJSON(w, http.StatusOK, dbQueryResponse{
		Rows:     rows,
		Columns:  columns,
		RowCount: len(rows),
	})
}

type dbExecuteResponse struct {
	RowsAffected int64 `json:"rows_affected"`
	LastInsertID int64 `json:"last_insert_id"`
}

func (s *Server) dbExecute(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	var req dbQueryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SQL == "" {
		writeError(w, http.StatusBadRequest, "sql is required")
		return
	}

	start := time.Now()
	affected, lastID, err := s.db.Execute(r.Context(), req.SQL, req.Database)
	s.recordDBOp("execute", start)
	if err != nil {
		s.log.Error("db execute failed", "error", err)
		writeError(w, statusFor(err), "execute failed")
		return
	}

	writeJSON(w, http.StatusOK, dbExecuteResponse{
		RowsAffected: affected,
		LastInsertID: lastID,
	})
}

type dbInfoResponse struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

func (s *Server) dbInfo(w http.ResponseWriter, _ *http.Request) {
	b := s.backends
	writeJSON(w, http.StatusOK, dbInfoResponse{
		Host:     b.ExternalHost,
		Port:     b.MySQLPort,
		User:     b.MySQLUser,
		Password: b.MySQLPassword,
		URL:      fmt.Sprintf("mysql://%s:%s@%s:%d", b.MySQLUser, b.MySQLPassword, b.ExternalHost, b.MySQLPort),
	})
}

func (s *Server) recordDBOp(op string, start time.Time) {
	if s.registry != nil {
		s.registry.CoreMetrics().RecordDBQuery(op, time.Since(start))
	}
}
