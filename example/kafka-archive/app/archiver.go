// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/twmb/franz-go/pkg/kgo"
)

// archiver polls the topic and uploads each non-empty batch of records
// as a single newline delimited object.
type archiver struct {
	log    *slog.Logger
	client *kgo.Client
	store  *minio.Client
	bucket string
	topic  string
}

func (a *archiver) consume(ctx context.Context) error {
	for {
		fetches := a.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}

		for _, ferr := range fetches.Errors() {
			if errors.Is(ferr.Err, context.Canceled) {
				return nil
			}

			a.log.ErrorContext(
				ctx,
				"failed to fetch records",
				slog.String("topic", ferr.Topic),
				slog.Int64("partition", int64(ferr.Partition)),
				slog.Any("error", ferr.Err),
			)
		}

		var buf bytes.Buffer
		var n int
		fetches.EachRecord(func(record *kgo.Record) {
			buf.Write(record.Value)
			buf.WriteByte('\n')
			n++
		})
		if n == 0 {
			continue
		}

		err := a.upload(ctx, &buf, n)
		if err != nil {
			return err
		}
	}
}

func (a *archiver) upload(ctx context.Context, buf *bytes.Buffer, n int) error {
	key := fmt.Sprintf(
		"%s/%s-%s.jsonl",
		a.topic,
		time.Now().UTC().Format("20060102T150405"),
		uuid.NewString(),
	)

	_, err := a.store.PutObject(ctx, a.bucket, key, buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return err
	}

	a.log.InfoContext(
		ctx,
		"archived records",
		slog.String("key", key),
		slog.Int("records", n),
	)
	return nil
}
