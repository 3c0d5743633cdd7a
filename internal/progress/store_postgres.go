package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store. Writes are upserts; the last
// writer wins.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a progress store on the course_progress table.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, key Key) (Record, bool, error) {
	if !key.valid() {
		return Record{}, false, storageErr("load", key, fmt.Errorf("learner and course are required"))
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM course_progress WHERE progress_key = $1`,
		key.String(),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, storageErr("load", key, err)
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		return Record{}, false, storageErr("load", key, err)
	}
	return rec, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, key Key, rec Record) error {
	if !key.valid() {
		return storageErr("save", key, fmt.Errorf("learner and course are required"))
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return storageErr("save", key, fmt.Errorf("encode record: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO course_progress (progress_key, learner_id, course_slug, record, updated_at)
		 VALUES ($1, $2, $3, $4::jsonb, NOW())
		 ON CONFLICT (progress_key) DO UPDATE
		 SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		key.String(),
		key.LearnerID,
		key.CourseSlug,
		string(data),
	)
	if err != nil {
		return storageErr("save", key, err)
	}
	return nil
}

func (s *PostgresStore) ListByCourse(ctx context.Context, courseSlug string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT learner_id, record, updated_at
		 FROM course_progress
		 WHERE course_slug = $1
		 ORDER BY learner_id ASC`,
		courseSlug,
	)
	if err != nil {
		return nil, &StorageError{Op: "list", Key: CoursePrefix(courseSlug), Err: err}
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.LearnerID, &raw, &e.UpdatedAt); err != nil {
			return nil, &StorageError{Op: "list", Key: CoursePrefix(courseSlug), Err: fmt.Errorf("scan progress: %w", err)}
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, &StorageError{Op: "list", Key: CoursePrefix(courseSlug), Err: err}
		}
		e.Record = rec
		e.Key = Key{LearnerID: e.LearnerID, CourseSlug: courseSlug}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Key: CoursePrefix(courseSlug), Err: fmt.Errorf("iterate progress: %w", err)}
	}
	return out, nil
}

func decodeRecord(raw []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if rec.CompletedLessons == nil {
		rec.CompletedLessons = []string{}
	}
	return rec, nil
}
