// Package db wraps the MySQL backing store for the gateway's SQL
// passthrough endpoints. Queries and statements are forwarded untouched;
// the gateway owns no schema and persists nothing here.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/gnishant95/forge/errors"
	"github.com/gnishant95/forge/pkg/retry"
)

// Client is a thin wrapper over the MySQL connection pool
type Client struct {
	db *sql.DB
}

// Connect opens a MySQL connection pool using the given DSN, retrying
// with backoff while the server is still starting.
func Connect(ctx context.Context, dsn string) (*Client, error) {
	pool, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.WrapInvalid(err, "db", "Connect", "parse DSN")
	}

	err = retry.Do(ctx, retry.Startup(), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return pool.PingContext(pingCtx)
	})
	if err != nil {
		_ = pool.Close()
		return nil, errors.WrapTransient(err, "db", "Connect", "ping")
	}

	return &Client{db: pool}, nil
}

// Ping checks connection liveness
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Query runs a read statement and returns rows as string maps plus the
// column order. An optional database name selects the schema first.
func (c *Client) Query(ctx context.Context, query, database string) ([]map[string]string, []string, error) {
	if err := c.useDatabase(ctx, database); err != nil {
		return nil, nil, err
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, errors.WrapTransient(err, "db", "Query", "execute")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, errors.WrapTransient(err, "db", "Query", "read columns")
	}

	var results []map[string]string
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, errors.WrapTransient(err, "db", "Query", "scan row")
		}

		row := make(map[string]string, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case nil:
				row[col] = ""
			case []byte:
				row[col] = string(v)
			default:
				row[col] = fmt.Sprintf("%v", v)
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.WrapTransient(err, "db", "Query", "iterate rows")
	}

	return results, columns, nil
}

// Execute runs a write statement and returns (rows affected, last insert id)
func (c *Client) Execute(ctx context.Context, query, database string) (int64, int64, error) {
	if err := c.useDatabase(ctx, database); err != nil {
		return 0, 0, err
	}

	result, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return 0, 0, errors.WrapTransient(err, "db", "Execute", "execute")
	}

	affected, _ := result.RowsAffected()
	lastID, _ := result.LastInsertId()
	return affected, lastID, nil
}

// useDatabase selects the schema when one is requested
func (c *Client) useDatabase(ctx context.Context, database string) error {
	if database == "" {
		return nil
	}
	if _, err := c.db.ExecContext(ctx, "USE "+database); err != nil {
		return errors.WrapTransient(err, "db", "useDatabase", database)
	}
	return nil
}

// Close releases the connection pool
func (c *Client) Close() error {
	return c.db.Close()
}
