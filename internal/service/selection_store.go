package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/examflow"
)

// SelectionStore keeps one student's exam selections in Redis under the
// dashboard's storage keys, namespaced by student.
type SelectionStore struct {
	rdb *redis.Client
	uid string
	ttl time.Duration
}

var _ examflow.LocalStore = (*SelectionStore)(nil)

// NewSelectionStore creates a SelectionStore for uid.
func NewSelectionStore(rdb *redis.Client, uid string, ttl time.Duration) *SelectionStore {
	return &SelectionStore{rdb: rdb, uid: uid, ttl: ttl}
}

func (s *SelectionStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, config.CacheKey.StudentStorageKey(s.uid, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (s *SelectionStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, config.CacheKey.StudentStorageKey(s.uid, key), value, s.ttl).Err()
}

// maxSelectionRetries bounds optimistic retries when another request writes
// the same key between WATCH and EXEC.
const maxSelectionRetries = 10

// ErrSelectionBusy is returned when Update keeps losing the race for a key.
var ErrSelectionBusy = errors.New("selection store: too many concurrent writes")

// Update applies fn to the stored value under WATCH/MULTI, retrying when the
// key changes before the write commits.
func (s *SelectionStore) Update(ctx context.Context, key string, fn func(current string) (string, error)) error {
	k := config.CacheKey.StudentStorageKey(s.uid, key)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxSelectionRetries; i++ {
		err := s.rdb.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrSelectionBusy
}
