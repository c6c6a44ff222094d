package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/tutor-portal/internal/config"
)

// Snapshot is one result set delivered by Watch.
type Snapshot struct {
	Docs []Document
	Err  error
}

// DocSnapshot is one state of a watched document. Doc is nil while the
// document does not exist.
type DocSnapshot struct {
	Doc *Document
	Err error
}

// Watch delivers the current result of q, then a fresh result after every
// change in the collection. The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context, q Query) (<-chan Snapshot, error) {
	if _, _, err := buildQuery(q); err != nil {
		return nil, err
	}
	sub, err := s.subscribe(ctx, q.Collection)
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		events := sub.Channel()

		for {
			docs, err := s.Query(ctx, q)
			if !send(ctx, out, Snapshot{Docs: docs, Err: err}) {
				return
			}
			if !waitForChange(ctx, events, nil) {
				return
			}
		}
	}()
	return out, nil
}

// WatchDoc delivers the current state of the document at path, then a new
// state after every write to it. The channel closes when ctx is done.
func (s *Store) WatchDoc(ctx context.Context, path string) (<-chan DocSnapshot, error) {
	collection, _, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}
	sub, err := s.subscribe(ctx, collection)
	if err != nil {
		return nil, err
	}

	matches := func(payload string) bool {
		var ev ChangeEvent
		return json.Unmarshal([]byte(payload), &ev) == nil && ev.Path == path
	}

	out := make(chan DocSnapshot, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		events := sub.Channel()

		for {
			d, err := s.Get(ctx, path)
			if errors.Is(err, ErrNotFound) {
				d, err = nil, nil
			}
			if !send(ctx, out, DocSnapshot{Doc: d, Err: err}) {
				return
			}
			if !waitForChange(ctx, events, matches) {
				return
			}
		}
	}()
	return out, nil
}

func (s *Store) subscribe(ctx context.Context, collection string) (*redis.PubSub, error) {
	if s.rdb == nil {
		return nil, errors.New("watch requires redis")
	}
	sub := s.rdb.Subscribe(ctx, config.CacheKey.CollectionChannel(collection))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}
	return sub, nil
}

// waitForChange blocks until an event accepted by match arrives, then
// discards whatever else is already queued so bursts cause one refresh.
func waitForChange(ctx context.Context, events <-chan *redis.Message, match func(string) bool) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-events:
			if !ok {
				return false
			}
			if match != nil && !match(msg.Payload) {
				continue
			}
			for {
				select {
				case _, ok := <-events:
					if !ok {
						return true
					}
				default:
					return true
				}
			}
		}
	}
}

func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
