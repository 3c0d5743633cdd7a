package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 3 * time.Second

// RedisStore keeps each record as a JSON blob under its derived key and tracks
// the learners of a course in a set so reports can enumerate them.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis/Dragonfly-backed progress store.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisStore{client: client}, nil
}

func learnersKey(courseSlug string) string {
	return "progress-learners:" + courseSlug
}

func (s *RedisStore) Load(ctx context.Context, key Key) (Record, bool, error) {
	if !key.valid() {
		return Record{}, false, storageErr("load", key, fmt.Errorf("learner and course are required"))
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, storageErr("load", key, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, storageErr("load", key, fmt.Errorf("decode record: %w", err))
	}
	if rec.CompletedLessons == nil {
		rec.CompletedLessons = []string{}
	}
	return rec, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key Key, rec Record) error {
	if !key.valid() {
		return storageErr("save", key, fmt.Errorf("learner and course are required"))
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return storageErr("save", key, fmt.Errorf("encode record: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key.String(), data, 0)
		p.SAdd(ctx, learnersKey(key.CourseSlug), key.LearnerID)
		return nil
	})
	if err != nil {
		return storageErr("save", key, err)
	}
	return nil
}

func (s *RedisStore) ListByCourse(ctx context.Context, courseSlug string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	learners, err := s.client.SMembers(ctx, learnersKey(courseSlug)).Result()
	if err != nil {
		return nil, &StorageError{Op: "list", Key: learnersKey(courseSlug), Err: err}
	}
	if len(learners) == 0 {
		return nil, nil
	}
	sort.Strings(learners)

	keys := make([]string, len(learners))
	for i, l := range learners {
		keys[i] = Key{LearnerID: l, CourseSlug: courseSlug}.String()
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, &StorageError{Op: "list", Key: CoursePrefix(courseSlug), Err: err}
	}

	out := make([]Entry, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		k := Key{LearnerID: learners[i], CourseSlug: courseSlug}
		out = append(out, Entry{Key: k, LearnerID: k.LearnerID, Record: rec})
	}
	return out, nil
}
