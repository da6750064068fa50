// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/z5labs/closer"
	"github.com/z5labs/closer/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by the [Archiver].
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ObjectStore uploads archive objects.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64) error
}

// Archiver dumps a table to an object store as CSV.
type Archiver struct {
	log    *slog.Logger
	db     Querier
	store  ObjectStore
	bucket string
	table  string
}

// New initializes an [Archiver].
func New(log *slog.Logger, db Querier, store ObjectStore, bucket, table string) *Archiver {
	return &Archiver{
		log:    log,
		db:     db,
		store:  store,
		bucket: bucket,
		table:  table,
	}
}

// Handle dumps the configured table and uploads it under a key of the
// form "<table>/<timestamp>-<run id>.csv".
func (a *Archiver) Handle(ctx context.Context) (err error) {
	guard := closer.New()
	defer guard.CloseOnExit(&err)

	rows, err := a.db.Query(ctx, fmt.Sprintf(`SELECT * FROM %s`, pgx.Identifier{a.table}.Sanitize()))
	if err != nil {
		return err
	}
	rows = postgres.Rows(guard, rows)

	var buf bytes.Buffer
	n, err := writeCSV(&buf, rows)
	if err != nil {
		return err
	}

	key := fmt.Sprintf(
		"%s/%s-%s.csv",
		a.table,
		time.Now().UTC().Format("20060102T150405"),
		uuid.NewString(),
	)

	err = a.store.PutObject(ctx, a.bucket, key, &buf, int64(buf.Len()))
	if err != nil {
		return err
	}

	a.log.InfoContext(
		ctx,
		"archived table",
		slog.String("table", a.table),
		slog.String("key", key),
		slog.Int64("rows", n),
	)
	return nil
}

func writeCSV(w io.Writer, rows pgx.Rows) (int64, error) {
	cw := csv.NewWriter(w)

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, fd := range fields {
		header[i] = fd.Name
	}

	err := cw.Write(header)
	if err != nil {
		return 0, err
	}

	var count int64
	record := make([]string, len(fields))
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return count, err
		}

		for i, v := range values {
			if v == nil {
				record[i] = ""
				continue
			}
			record[i] = fmt.Sprint(v)
		}

		err = cw.Write(record)
		if err != nil {
			return count, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, err
	}

	cw.Flush()
	return count, cw.Error()
}
