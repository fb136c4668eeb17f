package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTracedStatementLength = 512
	preparedBinaryParam      = "disable_prepared_binary_result"
)

// openDB opens a traced Postgres pool and checks it is reachable.
func openDB(ctx context.Context, rawURL string, disablePreparedBinaryResult bool) (*sqlx.DB, error) {
	dsn := postgresDSN(rawURL, disablePreparedBinaryResult)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(postgresDBName(dsn)),
		otelsql.WithQueryFormatter(tracedStatement),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// postgresDSN adds disable_prepared_binary_result=yes for poolers that cannot
// handle binary results. An explicit value in the URL wins.
func postgresDSN(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	query := parsed.Query()
	if query.Get(preparedBinaryParam) != "" {
		return raw
	}
	query.Set(preparedBinaryParam, "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// postgresDBName reads the database name from a URL or key=value DSN.
func postgresDBName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		if name := strings.TrimPrefix(parsed.Path, "/"); name != "" {
			return name
		}
	}
	for _, field := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(field, "dbname="); ok {
			if name = strings.Trim(name, `"'`); name != "" {
				return name
			}
		}
	}
	return ""
}

// tracedStatement collapses whitespace so span names stay on one line.
func tracedStatement(query string) string {
	collapsed := strings.Join(strings.Fields(query), " ")
	if len(collapsed) <= maxTracedStatementLength {
		return collapsed
	}
	return collapsed[:maxTracedStatementLength] + "..."
}
